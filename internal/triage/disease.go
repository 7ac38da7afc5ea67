package triage

import (
	"sort"
	"strings"
)

// MaxDisplayedConditions caps the inferred conditions shown to the user.
const MaxDisplayedConditions = 5

// DiseaseProfile is one row of the keyword scoring table. Keywords may repeat
// across profiles.
type DiseaseProfile struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// DiseaseInferencer ranks candidate conditions by keyword overlap.
type DiseaseInferencer struct {
	profiles []DiseaseProfile
}

func NewDiseaseInferencer(profiles []DiseaseProfile) *DiseaseInferencer {
	cp := make([]DiseaseProfile, len(profiles))
	copy(cp, profiles)
	return &DiseaseInferencer{profiles: cp}
}

// Infer returns every condition with at least one keyword present in the
// combined symptom text, most matches first. Each keyword counts once and ties
// keep table order.
func (d *DiseaseInferencer) Infer(primary string, additional []string) []string {
	text := combineSymptoms(primary, additional)

	type scored struct {
		name  string
		score int
	}
	var hits []scored
	for _, p := range d.profiles {
		n := 0
		for _, kw := range p.Keywords {
			if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, scored{name: p.Name, score: n})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.name
	}
	return names
}

// DetectFever reports whether any fever term appears in the symptom text.
func DetectFever(terms []string, primary string, additional []string) bool {
	return ContainsAny(combineSymptoms(primary, additional), terms)
}

func combineSymptoms(primary string, additional []string) string {
	parts := append([]string{primary}, additional...)
	return strings.ToLower(strings.Join(parts, " "))
}
