package entity

const (
	PlanFree    = "free"
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// ValidPlan reports whether plan is a known subscription plan. An empty plan
// is accepted; the form is what makes it mandatory.
func ValidPlan(plan string) bool {
	switch plan {
	case "", PlanFree, PlanBasic, PlanPremium:
		return true
	}
	return false
}
