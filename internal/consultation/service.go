package consultation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Ranjith-47/care-navigator/internal/facility"
	"github.com/Ranjith-47/care-navigator/internal/triage"
)

// Hints are the derived facts passed to the assistant alongside the history.
type Hints struct {
	Category       string
	RedFlagPresent bool
}

// Assistant is the optional language-model collaborator. Its output is
// advisory and stored next to, never instead of, the rule-based result.
type Assistant interface {
	Advise(ctx context.Context, history []Message, hints Hints) (string, error)
}

// Escalator is told about consultations that ended on the urgent path.
type Escalator interface {
	NotifyUrgent(ctx context.Context, c Consultation) error
}

// FacilityFinder is the facility ranker in both of its modes.
type FacilityFinder interface {
	Rank(category string, severity int) facility.Result
	RankNearest(lat, lng float64) []facility.Facility
}

type Service interface {
	CreateConsultation(ctx context.Context, patientID uuid.UUID) (*Consultation, error)
	GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Submit(ctx context.Context, id uuid.UUID, text string) (*Turn, error)
	Reset(ctx context.Context, id uuid.UUID) (*Consultation, error)
	RankFacilities(category string, severity int) facility.Result
	NearestFacilities(lat, lng float64) []facility.Facility
	// Close waits for background assistant and escalation work.
	Close()
}

type service struct {
	repo      Repository
	engine    *triage.Engine
	finder    FacilityFinder
	assistant Assistant
	escalator Escalator
	log       *zap.Logger

	locks sync.Map // uuid.UUID -> *sync.Mutex
	wg    sync.WaitGroup

	// Latest outstanding assistant request per consultation.
	advice    sync.Map // uuid.UUID -> uint64
	adviceSeq atomic.Uint64
}

// NewService wires the triage engine to storage. assistant and escalator may
// be nil.
func NewService(repo Repository, engine *triage.Engine, finder FacilityFinder, assistant Assistant, escalator Escalator, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		repo:      repo,
		engine:    engine,
		finder:    finder,
		assistant: assistant,
		escalator: escalator,
		log:       log,
	}
}

func (s *service) CreateConsultation(ctx context.Context, patientID uuid.UUID) (*Consultation, error) {
	c := &Consultation{
		ID:        uuid.New(),
		PatientID: patientID,
		History:   []Message{newMessage(RoleAssistant, triage.Greeting, false)},
		Session:   *triage.NewSession(),
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save consultation: %w", err)
	}
	s.log.Info("consultation created", zap.Stringer("consultation_id", c.ID))
	return c, nil
}

func (s *service) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.repo.GetByID(ctx, id)
}

// Submit runs one user message through the triage engine. Messages for the
// same consultation are processed one at a time.
func (s *service) Submit(ctx context.Context, id uuid.UUID, text string) (*Turn, error) {
	unlock := s.lock(id)
	defer unlock()

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasComplete := c.Session.Complete()
	reply := s.engine.Submit(&c.Session, text)
	escalated := !wasComplete && c.Session.RedFlag != nil && c.Session.Complete()

	c.History = append(c.History, newMessage(RoleUser, text, false))
	for _, m := range reply.Messages {
		c.History = append(c.History, newMessage(RoleAssistant, m, escalated))
	}
	if reply.Facilities != nil {
		c.Facilities = reply.Facilities
	}
	c.IsComplete = c.Session.Complete()

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save consultation: %w", err)
	}

	fields := []zap.Field{
		zap.Stringer("consultation_id", id),
		zap.Int("step", c.Session.Step),
		zap.Bool("retry", reply.Retry),
		zap.Bool("redirected", reply.Redirected),
	}
	if reply.Recommendation != nil && !wasComplete {
		fields = append(fields, zap.String("tier", string(reply.Recommendation.Tier)))
	}
	s.log.Info("message processed", fields...)

	if escalated && s.escalator != nil {
		snapshot := *c.clone()
		s.background(func(ctx context.Context) {
			if err := s.escalator.NotifyUrgent(ctx, snapshot); err != nil {
				s.log.Warn("urgent escalation failed", zap.Stringer("consultation_id", id), zap.Error(err))
			}
		})
	}

	if s.assistant != nil && !wasComplete && !reply.Redirected {
		history := append([]Message(nil), c.History...)
		hints := Hints{Category: string(c.Session.Category), RedFlagPresent: c.Session.RedFlag != nil}
		ticket := s.adviceSeq.Add(1)
		s.advice.Store(id, ticket)
		s.background(func(ctx context.Context) { s.advise(ctx, id, ticket, history, hints) })
	}

	return &Turn{ConsultationID: id, Reply: reply}, nil
}

// advise asks the assistant for an elaboration and stores it. Failures only
// mean there is no elaboration. The note is dropped unless ticket is still the
// latest request for id; a later advised turn or a reset supersedes it.
func (s *service) advise(ctx context.Context, id uuid.UUID, ticket uint64, history []Message, hints Hints) {
	note, err := s.assistant.Advise(ctx, history, hints)
	if err != nil {
		s.log.Warn("assistant unavailable", zap.Stringer("consultation_id", id), zap.Error(err))
	}

	unlock := s.lock(id)
	defer unlock()

	if !s.advice.CompareAndDelete(id, ticket) {
		s.log.Debug("discarding stale assistant note", zap.Stringer("consultation_id", id))
		return
	}
	if err != nil || note == "" {
		return
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.log.Warn("reload for assistant note failed", zap.Stringer("consultation_id", id), zap.Error(err))
		return
	}
	c.AssistantNote = note
	if err := s.repo.Save(ctx, c); err != nil {
		s.log.Warn("save assistant note failed", zap.Stringer("consultation_id", id), zap.Error(err))
	}
}

// Reset starts a fresh triage session under the same consultation id.
func (s *service) Reset(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	unlock := s.lock(id)
	defer unlock()

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.advice.Delete(id)
	c.Session = *triage.NewSession()
	c.History = []Message{newMessage(RoleAssistant, triage.Greeting, false)}
	c.Facilities = nil
	c.AssistantNote = ""
	c.IsComplete = false

	if err := s.repo.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("save consultation: %w", err)
	}
	s.log.Info("consultation reset", zap.Stringer("consultation_id", id))
	return c, nil
}

func (s *service) RankFacilities(category string, severity int) facility.Result {
	return s.finder.Rank(category, severity)
}

func (s *service) NearestFacilities(lat, lng float64) []facility.Facility {
	return s.finder.RankNearest(lat, lng)
}

func (s *service) Close() {
	s.wg.Wait()
}

func (s *service) lock(id uuid.UUID) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// background runs fn detached from the request context.
func (s *service) background(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(context.Background())
	}()
}

func newMessage(role, content string, redFlag bool) Message {
	return Message{
		ID:        ulid.Make().String(),
		Role:      role,
		Content:   content,
		RedFlag:   redFlag,
		Timestamp: time.Now().UTC(),
	}
}
