package triage

import (
	"strings"

	"github.com/Ranjith-47/care-navigator/internal/facility"
)

const (
	Greeting = "Hello! Tell me your main health symptom.\n\nChest pain or breathing trouble → Call 108."

	RedirectMessage = "I can help only with health-related concerns. Please describe your symptoms (e.g., fever, pain, cough)."

	AnalyzingMessage = "Analyzing your symptoms…"

	CompletedMessage = "This assessment is complete. Start a new assessment to describe another concern."

	// urgentSeverity is the severity assumed when a red flag short-circuits
	// the questions.
	urgentSeverity = 10

	cardiacCategory = "cardiac"
)

var chestWords = []string{"chest"}

// FacilityRanker is the facility lookup the engine consults on urgent and
// teleconsult outcomes.
type FacilityRanker interface {
	Rank(category string, severity int) facility.Result
}

// Tables bundles the read-only reference data the engine is built from.
type Tables struct {
	Health     Lexicon
	FeverTerms []string
	Categories []CategoryRule
	RedFlags   []RedFlagPattern
	Diseases   []DiseaseProfile
}

// Reply is what one submitted answer produces for the presentation layer.
type Reply struct {
	Messages       []string         `json:"messages"`
	Controls       []Control        `json:"controls,omitempty"`
	Recommendation *Recommendation  `json:"recommendation,omitempty"`
	Facilities     *facility.Result `json:"facilities,omitempty"`
	Retry          bool             `json:"retry,omitempty"`
	Redirected     bool             `json:"redirected,omitempty"`
	Step           int              `json:"step"`
}

// Engine drives the questioning sequence. It holds no per-session state and
// may be shared by any number of sessions.
type Engine struct {
	health      Lexicon
	feverTerms  []string
	redFlags    *RedFlagClassifier
	categorizer *Categorizer
	diseases    *DiseaseInferencer
	validator   *Validator
	facilities  FacilityRanker
}

func NewEngine(t Tables, facilities FacilityRanker) *Engine {
	return &Engine{
		health:      t.Health,
		feverTerms:  t.FeverTerms,
		redFlags:    NewRedFlagClassifier(t.RedFlags),
		categorizer: NewCategorizer(t.Categories),
		diseases:    NewDiseaseInferencer(t.Diseases),
		validator:   NewValidator(t.Health),
		facilities:  facilities,
	}
}

func (e *Engine) IsHealthRelated(text string) bool { return e.health.Matches(text) }

func (e *Engine) Categorize(text string) Category { return e.categorizer.Categorize(text) }

func (e *Engine) ClassifyRedFlag(text string) *RedFlag { return e.redFlags.Classify(text) }

func (e *Engine) Infer(primary string, additional []string) []string {
	return e.diseases.Infer(primary, additional)
}

// Submit processes one user input against s and returns what to show next.
// Every input either advances the session, asks for a retry, or ends it on
// the urgent path.
func (e *Engine) Submit(s *Session, text string) Reply {
	text = strings.TrimSpace(text)

	if s.Complete() {
		return Reply{
			Messages:       []string{CompletedMessage},
			Recommendation: s.Recommendation,
			Step:           s.Step,
		}
	}

	if s.Step == StepIntent && !e.health.Matches(text) {
		return Reply{Messages: []string{RedirectMessage}, Redirected: true, Step: s.Step}
	}

	if flag := e.redFlags.Classify(text); flag != nil {
		return e.escalate(s, text, flag)
	}

	if s.Step == StepIntent {
		s.PrimarySymptom = text
		s.Category = e.categorizer.Categorize(text)
		return e.advance(s)
	}

	v := e.validator.Validate(s.Step, text)
	if !v.Accepted {
		return Reply{Messages: []string{v.Message}, Retry: true, Controls: ControlsFor(s), Step: s.Step}
	}

	switch s.Step {
	case StepFirstSymptoms, StepMoreSymptoms:
		if !isNegative(v.Text) {
			s.AdditionalSymptoms = append(s.AdditionalSymptoms, v.Text)
		}
	case StepDuration:
		s.Duration = v.Duration
	case StepSeverity:
		s.Severity = v.Number
	case StepAge:
		s.Age = v.Number
	case StepConditions:
		s.ExistingConditions = splitConditions(v.Text)
		return e.finalize(s)
	}

	return e.advance(s)
}

func (e *Engine) advance(s *Session) Reply {
	s.Step++
	r := Reply{Controls: ControlsFor(s), Step: s.Step}
	if q, ok := QuestionFor(s.Step); ok {
		r.Messages = []string{q.Prompt}
	}
	return r
}

// escalate ends the session on the urgent path. The red flag is recorded once.
// Chest wording in the triggering text forces the cardiac specialty; the
// categorizer is not consulted for that override.
func (e *Engine) escalate(s *Session, text string, flag *RedFlag) Reply {
	if s.RedFlag == nil {
		s.RedFlag = flag
	}
	if s.Step == StepIntent {
		s.PrimarySymptom = text
		s.Category = e.categorizer.Categorize(text)
	}

	rec := Recommend(urgentSeverity, "", true, s.Category)
	s.Recommendation = &rec

	category := string(e.categorizer.Categorize(text))
	if ContainsAny(text, chestWords) {
		category = cardiacCategory
	}

	r := Reply{
		Messages:       []string{s.RedFlag.Message + "\n" + s.RedFlag.Action},
		Recommendation: s.Recommendation,
		Step:           s.Step,
	}
	if e.facilities != nil {
		res := e.facilities.Rank(category, urgentSeverity)
		r.Facilities = &res
	}
	return r
}

func (e *Engine) finalize(s *Session) Reply {
	s.Step = StepDone
	s.HasFever = DetectFever(e.feverTerms, s.PrimarySymptom, s.AdditionalSymptoms)

	possible := e.diseases.Infer(s.PrimarySymptom, s.AdditionalSymptoms)
	if len(possible) > MaxDisplayedConditions {
		possible = possible[:MaxDisplayedConditions]
	}
	s.PossibleConditions = possible

	rec := Recommend(s.Severity, s.Duration, s.RedFlag != nil, s.Category)
	if len(possible) > 0 {
		rec.Description += "\n\nPossible conditions: " + strings.Join(possible, ", ")
	}
	s.Recommendation = &rec

	r := Reply{
		Messages:       []string{AnalyzingMessage},
		Recommendation: s.Recommendation,
		Step:           s.Step,
	}
	if rec.Tier != TierSelfCare && e.facilities != nil {
		res := e.facilities.Rank(string(s.Category), s.Severity)
		r.Facilities = &res
	}
	return r
}

func splitConditions(text string) []string {
	if isNegative(text) {
		return []string{}
	}
	out := []string{}
	for _, c := range strings.Split(text, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
