package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Finding is one extracted observation for an organ.
// A nil Description means normal or not mentioned.
type Finding struct {
	Organ       Organ   `json:"-"`
	Description *string `json:"finding"`
}

// NewFinding creates a finding with a description
func NewFinding(organ Organ, description string) Finding {
	return Finding{Organ: organ, Description: &description}
}

// HasValue reports whether the finding carries a non-blank description
func (f Finding) HasValue() bool {
	return f.Description != nil && strings.TrimSpace(*f.Description) != ""
}

// FindingsSet holds the extracted findings per organ.
// An empty list means no abnormality for that organ.
type FindingsSet struct {
	Liver       []Finding `json:"abnormal_liver"`
	Kidney      []Finding `json:"abnormal_kidney"`
	GallBladder []Finding `json:"abnormal_gallbladder"`
}

// ForOrgan returns the findings for the given organ
func (s *FindingsSet) ForOrgan(organ Organ) []Finding {
	if s == nil {
		return nil
	}
	switch organ {
	case OrganLiver:
		return s.Liver
	case OrganKidney:
		return s.Kidney
	case OrganGallBladder:
		return s.GallBladder
	}
	return nil
}

// Add appends a finding to its organ list
func (s *FindingsSet) Add(f Finding) error {
	switch f.Organ {
	case OrganLiver:
		s.Liver = append(s.Liver, f)
	case OrganKidney:
		s.Kidney = append(s.Kidney, f)
	case OrganGallBladder:
		s.GallBladder = append(s.GallBladder, f)
	default:
		return fmt.Errorf("unknown organ %q", f.Organ)
	}
	return nil
}

// Queries returns the descriptions of the organ's findings in order, skipping empty ones
func (s *FindingsSet) Queries(organ Organ) []string {
	var queries []string
	for _, f := range s.ForOrgan(organ) {
		if f.HasValue() {
			queries = append(queries, *f.Description)
		}
	}
	return queries
}

// IsEmpty reports whether no organ has a finding with a value
func (s *FindingsSet) IsEmpty() bool {
	for _, organ := range Organs() {
		if len(s.Queries(organ)) > 0 {
			return false
		}
	}
	return true
}

// ToMap returns the finding descriptions keyed by organ, nil entries included
func (s *FindingsSet) ToMap() map[Organ][]*string {
	out := make(map[Organ][]*string, len(Organs()))
	for _, organ := range Organs() {
		findings := s.ForOrgan(organ)
		descriptions := make([]*string, 0, len(findings))
		for _, f := range findings {
			descriptions = append(descriptions, f.Description)
		}
		out[organ] = descriptions
	}
	return out
}

// UnmarshalJSON decodes the wire form and tags each finding with its organ.
// All three organ lists must be present; unknown fields are rejected.
func (s *FindingsSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	known := make(map[string]Organ, len(Organs()))
	for _, organ := range Organs() {
		known[organ.FindingKey()] = organ
	}
	for key := range raw {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("unexpected field %q", key)
		}
	}

	decoded := FindingsSet{}
	for _, organ := range Organs() {
		value, ok := raw[organ.FindingKey()]
		if !ok {
			return fmt.Errorf("missing field %q", organ.FindingKey())
		}

		var findings []Finding
		if err := json.Unmarshal(value, &findings); err != nil {
			return fmt.Errorf("field %q: %w", organ.FindingKey(), err)
		}
		for _, f := range findings {
			f.Organ = organ
			if err := decoded.Add(f); err != nil {
				return err
			}
		}
	}

	*s = decoded
	return nil
}

// MarshalJSON writes empty lists instead of null
func (s FindingsSet) MarshalJSON() ([]byte, error) {
	out := make(map[string][]Finding, len(Organs()))
	for _, organ := range Organs() {
		findings := s.ForOrgan(organ)
		if findings == nil {
			findings = []Finding{}
		}
		out[organ.FindingKey()] = findings
	}
	return json.Marshal(out)
}
