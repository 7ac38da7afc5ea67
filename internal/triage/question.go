package triage

import "strconv"

// Steps of the questioning sequence. StepDone is terminal.
const (
	StepIntent = iota
	StepFirstSymptoms
	StepMoreSymptoms
	StepDuration
	StepSeverity
	StepAge
	StepConditions
	StepDone
)

// QuestionKind selects the validation rule for an answer.
type QuestionKind string

const (
	KindSymptoms   QuestionKind = "symptoms"
	KindDuration   QuestionKind = "duration"
	KindSeverity   QuestionKind = "severity"
	KindAge        QuestionKind = "age"
	KindConditions QuestionKind = "conditions"
)

// Question is the prompt shown when the session enters Step.
type Question struct {
	Step    int          `json:"step"`
	Kind    QuestionKind `json:"kind"`
	Prompt  string       `json:"prompt"`
	Options []string     `json:"options,omitempty"`
}

// Duration is the canonical answer to the duration question.
type Duration string

const (
	DurationFewHours          Duration = "few hours"
	DurationOneDay            Duration = "1 day"
	DurationTwoToThreeDays    Duration = "2-3 days"
	DurationMoreThanThreeDays Duration = "more than 3 days"
)

// durations is checked longest first so "more than 3 days" is never read as
// a shorter phrase.
var durations = []Duration{
	DurationMoreThanThreeDays,
	DurationTwoToThreeDays,
	DurationOneDay,
	DurationFewHours,
}

var DurationOptions = []string{"Few hours", "1 day", "2–3 days", "More than 3 days"}

// Questions lists the prompts in step order, one per collecting step.
var Questions = []Question{
	{Step: StepFirstSymptoms, Kind: KindSymptoms, Prompt: "Do you have any other symptoms along with this? (type 'no' if none)"},
	{Step: StepMoreSymptoms, Kind: KindSymptoms, Prompt: "Anything else you have noticed, such as fever, nausea, rash or dizziness? (type 'no' if none)"},
	{Step: StepDuration, Kind: KindDuration, Prompt: "How long have you had this symptom?", Options: DurationOptions},
	{Step: StepSeverity, Kind: KindSeverity, Prompt: "On a scale of 1–10, how severe is your symptom?", Options: severityOptions()},
	{Step: StepAge, Kind: KindAge, Prompt: "What is your age?"},
	{Step: StepConditions, Kind: KindConditions, Prompt: "Do you have any existing medical conditions? (e.g., diabetes, asthma, BP) Type 'no' if none."},
}

// QuestionFor returns the question asked at step.
func QuestionFor(step int) (Question, bool) {
	for _, q := range Questions {
		if q.Step == step {
			return q, true
		}
	}
	return Question{}, false
}

func severityOptions() []string {
	opts := make([]string, 10)
	for i := range opts {
		opts[i] = strconv.Itoa(i + 1)
	}
	return opts
}

// Control is a quick-reply widget the presentation layer should render.
type Control struct {
	Kind    QuestionKind `json:"kind"`
	Options []string     `json:"options"`
}

// ControlsFor derives the quick-reply widgets from the current step. Nothing
// is stored; the presentation layer recomputes this from the session.
func ControlsFor(s *Session) []Control {
	if s.Complete() {
		return nil
	}
	q, ok := QuestionFor(s.Step)
	if !ok || len(q.Options) == 0 {
		return nil
	}
	return []Control{{Kind: q.Kind, Options: q.Options}}
}
