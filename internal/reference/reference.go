// Package reference serves the static country, state and city tables.
package reference

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AlexZx-05/Multiple-step-form/internal/entity"
)

//go:embed data/*.json
var dataFS embed.FS

// ErrNotFound indicates an unknown country or state key.
var ErrNotFound = errors.New("reference: not found")

// Store holds the lookup tables. It is immutable after Load.
type Store struct {
	countries []entity.ReferenceEntry
	states    map[string][]entity.ReferenceEntry
	cities    map[string][]entity.ReferenceEntry
}

// Load parses the embedded tables.
func Load() (*Store, error) {
	s := &Store{}
	if err := readJSON("data/countries.json", &s.countries); err != nil {
		return nil, err
	}
	if err := readJSON("data/states.json", &s.states); err != nil {
		return nil, err
	}
	if err := readJSON("data/cities.json", &s.cities); err != nil {
		return nil, err
	}
	return s, nil
}

func readJSON(name string, v any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (s *Store) Countries() []entity.ReferenceEntry {
	return append([]entity.ReferenceEntry(nil), s.countries...)
}

func (s *Store) States(country string) ([]entity.ReferenceEntry, error) {
	list, ok := s.states[country]
	if !ok {
		return nil, fmt.Errorf("%w: states for country %q", ErrNotFound, country)
	}
	return append([]entity.ReferenceEntry(nil), list...), nil
}

func (s *Store) Cities(state string) ([]entity.ReferenceEntry, error) {
	list, ok := s.cities[state]
	if !ok {
		return nil, fmt.Errorf("%w: cities for state %q", ErrNotFound, state)
	}
	return append([]entity.ReferenceEntry(nil), list...), nil
}
