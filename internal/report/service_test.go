package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Ranjith-47/care-navigator/internal/consultation"
	"github.com/Ranjith-47/care-navigator/internal/facility"
	"github.com/Ranjith-47/care-navigator/internal/triage"
)

type sent struct {
	chatID   int64
	text     string
	data     []byte
	fileName string
}

type fakeTelegram struct {
	messages  []sent
	documents []sent
	err       error
}

func (f *fakeTelegram) SendMessage(_ context.Context, chatID int64, text string) error {
	f.messages = append(f.messages, sent{chatID: chatID, text: text})
	return f.err
}

func (f *fakeTelegram) SendDocument(_ context.Context, chatID int64, data []byte, fileName string) error {
	f.documents = append(f.documents, sent{chatID: chatID, data: data, fileName: fileName})
	return f.err
}

func urgentConsultation() consultation.Consultation {
	s := triage.NewSession()
	s.PrimarySymptom = "crushing chest pain"
	s.Category = triage.CategoryGeneralPain
	s.RedFlag = &triage.RedFlag{Message: "Possible cardiac-related emergency.", Action: "Call 108 immediately."}
	s.Recommendation = &triage.Recommendation{
		Tier:        triage.TierUrgent,
		Title:       "Emergency Attention Required",
		Description: "Possible cardiac-related emergency. Call 108 immediately.",
		Actions:     []string{"Call 108 for emergency services", "Do not drive yourself"},
	}
	return consultation.Consultation{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		Session:   *s,
		Facilities: &facility.Result{Facilities: []facility.Facility{
			{Name: "RGGGH Chennai", City: "Chennai", Emergency24x7: true},
		}},
		AssistantNote: "Stay seated and call 108.",
		IsComplete:    true,
	}
}

func TestRenderProducesPDF(t *testing.T) {
	data, err := NewService(nil, 0, nil).Render(urgentConsultation())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", data[:min(len(data), 8)])
	}
}

func TestRenderIncompleteConsultation(t *testing.T) {
	c := consultation.Consultation{ID: uuid.New(), Session: *triage.NewSession()}
	data, err := NewService(nil, 0, nil).Render(c)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}
}

func TestNotifyUrgentSendsAlertAndDocument(t *testing.T) {
	tg := &fakeTelegram{}
	c := urgentConsultation()

	if err := NewService(tg, 99, nil).NotifyUrgent(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	if len(tg.messages) != 1 || tg.messages[0].chatID != 99 {
		t.Fatalf("expected one alert to chat 99, got %+v", tg.messages)
	}
	if !strings.Contains(tg.messages[0].text, "cardiac") || !strings.Contains(tg.messages[0].text, c.ID.String()) {
		t.Errorf("alert lacks details: %q", tg.messages[0].text)
	}
	if len(tg.documents) != 1 || tg.documents[0].fileName != "report_"+c.ID.String()+".pdf" {
		t.Fatalf("expected report document, got %+v", tg.documents)
	}
	if !bytes.HasPrefix(tg.documents[0].data, []byte("%PDF")) {
		t.Error("document is not a PDF")
	}
}

func TestNotifyUrgentWithoutRecipient(t *testing.T) {
	if err := NewService(&fakeTelegram{}, 0, nil).NotifyUrgent(context.Background(), urgentConsultation()); err == nil {
		t.Fatal("expected error without doctor chat")
	}
}

func TestNotifyUrgentStopsOnSendFailure(t *testing.T) {
	tg := &fakeTelegram{err: errors.New("network")}
	if err := NewService(tg, 1, nil).NotifyUrgent(context.Background(), urgentConsultation()); err == nil {
		t.Fatal("expected error")
	}
	if len(tg.documents) != 0 {
		t.Error("document sent after alert failed")
	}
}
