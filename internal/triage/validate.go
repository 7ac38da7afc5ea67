package triage

import (
	"strconv"
	"strings"
)

const (
	retrySymptoms   = "Please describe health-related symptoms or type 'no'."
	retryConditions = "Please mention a medical condition or type 'no'."
	retryDuration   = "Please select one of the given duration options."
	retrySeverity   = "Severity must be a number between 1 and 10."
	retryAge        = "Please enter a valid age in numbers (e.g., 25)."
)

// Validation is the outcome of checking one answer. When Accepted is false,
// Message is the re-prompt to show verbatim.
type Validation struct {
	Accepted bool
	Message  string

	Text     string
	Number   int
	Duration Duration
}

// Validator checks answers against the rule of the question at each step.
// It never touches session state.
type Validator struct {
	health Lexicon
}

func NewValidator(health Lexicon) *Validator {
	return &Validator{health: health}
}

// Validate checks answer for the question at step. Steps without a question
// accept the normalized text.
func (v *Validator) Validate(step int, answer string) Validation {
	text := normalize(answer)

	q, ok := QuestionFor(step)
	if !ok {
		return Validation{Accepted: true, Text: text}
	}

	switch q.Kind {
	case KindSymptoms:
		if !v.health.Matches(text) && !isNegative(text) {
			return retry(retrySymptoms)
		}
		return Validation{Accepted: true, Text: text}

	case KindConditions:
		if !v.health.Matches(text) && !isNegative(text) {
			return retry(retryConditions)
		}
		return Validation{Accepted: true, Text: text}

	case KindDuration:
		for _, d := range durations {
			if strings.Contains(text, string(d)) {
				return Validation{Accepted: true, Text: text, Duration: d}
			}
		}
		return retry(retryDuration)

	case KindSeverity:
		n, err := strconv.Atoi(text)
		if err != nil || n < 1 || n > 10 {
			return retry(retrySeverity)
		}
		return Validation{Accepted: true, Text: text, Number: n}

	case KindAge:
		n, err := strconv.Atoi(text)
		if err != nil || n <= 0 || n > 120 {
			return retry(retryAge)
		}
		return Validation{Accepted: true, Text: text, Number: n}
	}

	return Validation{Accepted: true, Text: text}
}

func retry(msg string) Validation {
	return Validation{Message: msg}
}

var dashes = strings.NewReplacer("–", "-", "—", "-")

func normalize(answer string) string {
	return dashes.Replace(strings.ToLower(strings.TrimSpace(answer)))
}

func isNegative(text string) bool {
	return text == "no" || text == "none"
}
