package entity

// ReferenceEntry is a country, state or city in the static lookup tables.
type ReferenceEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
