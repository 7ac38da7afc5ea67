package triage

// Category is the coarse symptom grouping used for facility routing.
type Category string

const (
	CategoryRespiratory  Category = "respiratory"
	CategoryInfection    Category = "infection"
	CategoryNeurological Category = "neurological"
	CategoryGastro       Category = "gastro"
	CategoryGeneralPain  Category = "general-pain"
	CategoryGeneral      Category = "general"
)

// CategoryRule assigns Category when any keyword is present.
type CategoryRule struct {
	Category Category `json:"category" yaml:"category"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// Categorizer evaluates its rules in order; the first match wins and text
// matching nothing is CategoryGeneral. Rule order is policy: chest and
// breathing words are checked before generic pain.
type Categorizer struct {
	rules []CategoryRule
}

func NewCategorizer(rules []CategoryRule) *Categorizer {
	cp := make([]CategoryRule, len(rules))
	copy(cp, rules)
	return &Categorizer{rules: cp}
}

func (c *Categorizer) Categorize(symptom string) Category {
	for _, r := range c.rules {
		if ContainsAny(symptom, r.Keywords) {
			return r.Category
		}
	}
	return CategoryGeneral
}
