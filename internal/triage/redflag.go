package triage

// RedFlag is the emergency notice attached to a session once a pattern fires.
type RedFlag struct {
	Message string `json:"message"`
	Action  string `json:"action"`
}

// RedFlagPattern maps a group of trigger phrases to one notice.
type RedFlagPattern struct {
	Name    string   `json:"name" yaml:"name"`
	Phrases []string `json:"phrases" yaml:"phrases"`
	Message string   `json:"message" yaml:"message"`
	Action  string   `json:"action" yaml:"action"`
}

// RedFlagClassifier detects emergency wording in raw text. Patterns are
// evaluated in the order given and the first group with any matching phrase
// wins, so more specific emergencies must come before generic ones.
type RedFlagClassifier struct {
	patterns []RedFlagPattern
}

func NewRedFlagClassifier(patterns []RedFlagPattern) *RedFlagClassifier {
	cp := make([]RedFlagPattern, len(patterns))
	copy(cp, patterns)
	return &RedFlagClassifier{patterns: cp}
}

// Classify returns the notice of the first matching group, or nil.
func (c *RedFlagClassifier) Classify(text string) *RedFlag {
	for _, p := range c.patterns {
		if ContainsAny(text, p.Phrases) {
			return &RedFlag{Message: p.Message, Action: p.Action}
		}
	}
	return nil
}
