package consultation

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ranjith-47/care-navigator/internal/facility"
	"github.com/Ranjith-47/care-navigator/internal/triage"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID        string    `json:"id"` // ULID, sorts by creation time
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	RedFlag   bool      `json:"is_red_flag,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Consultation represents the aggregate root: one conversation and the triage
// session it drives.
type Consultation struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`

	History []Message      `json:"history" db:"history"`
	Session triage.Session `json:"session" db:"session"`

	// Facilities suggested with the recommendation, if any.
	Facilities *facility.Result `json:"facilities,omitempty" db:"facilities"`

	// Advisory text from the optional assistant. Never changes the tier.
	AssistantNote string `json:"assistant_note,omitempty" db:"assistant_note"`

	IsComplete bool      `json:"is_complete" db:"is_complete"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Turn is the result of one submitted message.
type Turn struct {
	ConsultationID uuid.UUID `json:"consultation_id"`
	triage.Reply
}

// clone returns a deep copy so stored values never alias caller state.
func (c *Consultation) clone() *Consultation {
	cp := *c
	cp.History = append([]Message(nil), c.History...)
	s := c.Session
	s.ExistingConditions = append([]string{}, c.Session.ExistingConditions...)
	s.AdditionalSymptoms = append([]string{}, c.Session.AdditionalSymptoms...)
	s.PossibleConditions = append([]string{}, c.Session.PossibleConditions...)
	if c.Session.RedFlag != nil {
		rf := *c.Session.RedFlag
		s.RedFlag = &rf
	}
	if c.Session.Recommendation != nil {
		rec := *c.Session.Recommendation
		rec.Actions = append([]string(nil), rec.Actions...)
		s.Recommendation = &rec
	}
	cp.Session = s
	if c.Facilities != nil {
		res := *c.Facilities
		res.Facilities = append([]facility.Facility{}, c.Facilities.Facilities...)
		cp.Facilities = &res
	}
	return &cp
}
