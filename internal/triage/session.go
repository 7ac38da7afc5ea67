package triage

// Session is the per-conversation accumulation of validated answers. Only
// Engine.Submit mutates it.
type Session struct {
	Step               int             `json:"step"`
	PrimarySymptom     string          `json:"primary_symptom"`
	Category           Category        `json:"category,omitempty"`
	Age                int             `json:"age,omitempty"`
	ExistingConditions []string        `json:"existing_conditions"`
	Duration           Duration        `json:"duration,omitempty"`
	Severity           int             `json:"severity,omitempty"`
	AdditionalSymptoms []string        `json:"additional_symptoms"`
	HasFever           bool            `json:"has_fever"`
	PossibleConditions []string        `json:"possible_conditions"`
	RedFlag            *RedFlag        `json:"red_flag,omitempty"`
	Recommendation     *Recommendation `json:"recommendation,omitempty"`
}

func NewSession() *Session {
	return &Session{
		ExistingConditions: []string{},
		AdditionalSymptoms: []string{},
		PossibleConditions: []string{},
	}
}

// Complete reports whether the session has produced its recommendation.
func (s *Session) Complete() bool {
	return s.Recommendation != nil
}
