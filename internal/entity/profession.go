package entity

import "strings"

const (
	FieldUsername         = "username"
	FieldCurrentPassword  = "currentPassword"
	FieldNewPassword      = "newPassword"
	FieldProfession       = "profession"
	FieldCompanyName      = "companyName"
	FieldAddressLine1     = "addressLine1"
	FieldCountry          = "country"
	FieldState            = "state"
	FieldCity             = "city"
	FieldSubscriptionPlan = "subscriptionPlan"
)

const (
	ProfessionStudent      = "student"
	ProfessionEntrepreneur = "entrepreneur"
	ProfessionEmployee     = "employee"
	ProfessionFreelancer   = "freelancer"
	ProfessionUnemployed   = "unemployed"
)

// professionRules lists the extra fields a profession makes mandatory.
var professionRules = map[string][]string{
	ProfessionEntrepreneur: {FieldCompanyName},
	ProfessionEmployee:     {FieldCompanyName},
}

// RequiredByProfession returns the fields the given profession requires on
// top of the always-required ones. Matching is case-insensitive.
func RequiredByProfession(profession string) []string {
	return professionRules[strings.ToLower(strings.TrimSpace(profession))]
}

// Value returns the string value of a named submission field.
func (s ProfileSubmission) Value(field string) string {
	switch field {
	case FieldUsername:
		return s.Username
	case FieldCurrentPassword:
		return s.CurrentPassword
	case FieldNewPassword:
		return s.NewPassword
	case FieldProfession:
		return s.Profession
	case FieldCompanyName:
		return s.CompanyName
	case FieldAddressLine1:
		return s.AddressLine1
	case FieldCountry:
		return s.Country
	case FieldState:
		return s.State
	case FieldCity:
		return s.City
	case FieldSubscriptionPlan:
		return s.SubscriptionPlan
	}
	return ""
}

// MissingForProfession reports the profession-driven fields left blank.
func (s ProfileSubmission) MissingForProfession() []string {
	var missing []string
	for _, field := range RequiredByProfession(s.Profession) {
		if strings.TrimSpace(s.Value(field)) == "" {
			missing = append(missing, field)
		}
	}
	return missing
}
