package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/Ranjith-47/care-navigator/internal/consultation"
)

const disclaimer = "This summary was produced by rule-based triage. It is not a diagnosis."

var errNoRecipient = errors.New("no doctor chat configured")

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, data []byte, fileName string) error
}

type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
	log          *zap.Logger
}

// NewService builds the report service. tg may be nil when only rendering is
// needed.
func NewService(tg TelegramClient, doctorChatID int64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		log:          log,
	}
}

// Render draws the printable triage summary of c.
func (s *Service) Render(c consultation.Consultation) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Triage summary", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, tr(disclaimer), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr("Triage Summary"))
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 7, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 7, tr(value), "", "L", false)
	}
	heading := func(text string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Cell(0, 8, tr(text))
		pdf.Ln(10)
	}

	sess := c.Session
	line("Date:", time.Now().Format("02.01.2006 15:04"))
	line("Consultation:", c.ID.String())
	line("Patient:", c.PatientID.String())

	heading("Reported symptoms")
	line("Primary symptom:", orDash(sess.PrimarySymptom))
	line("Category:", orDash(string(sess.Category)))
	line("Additional:", joinOrNone(sess.AdditionalSymptoms))
	line("Duration:", orDash(string(sess.Duration)))
	if sess.Severity > 0 {
		line("Severity:", fmt.Sprintf("%d / 10", sess.Severity))
	} else {
		line("Severity:", "-")
	}
	if sess.Age > 0 {
		line("Age:", strconv.Itoa(sess.Age))
	} else {
		line("Age:", "-")
	}
	line("Existing conditions:", joinOrNone(sess.ExistingConditions))
	line("Fever:", yesNo(sess.HasFever))
	if len(sess.PossibleConditions) > 0 {
		line("Possible conditions:", strings.Join(sess.PossibleConditions, ", "))
	}

	if sess.RedFlag != nil {
		heading("Red flag")
		line("Finding:", sess.RedFlag.Message)
		line("Action:", sess.RedFlag.Action)
	}

	if rec := sess.Recommendation; rec != nil {
		heading("Recommendation")
		line("Level:", string(rec.Tier))
		line("Title:", rec.Title)
		pdf.MultiCell(0, 6, tr(rec.Description), "", "L", false)
		for _, a := range rec.Actions {
			pdf.MultiCell(0, 6, tr("- "+a), "", "L", false)
		}
	} else {
		heading("Recommendation")
		pdf.MultiCell(0, 6, tr("Assessment not completed."), "", "L", false)
	}

	if c.Facilities != nil && len(c.Facilities.Facilities) > 0 {
		heading("Suggested facilities")
		for _, f := range c.Facilities.Facilities {
			text := f.Name + ", " + f.City
			if f.Emergency24x7 {
				text += " (24x7 emergency)"
			}
			pdf.MultiCell(0, 6, tr("- "+text), "", "L", false)
		}
	}

	if c.AssistantNote != "" {
		heading("Assistant note (advisory)")
		pdf.MultiCell(0, 6, tr(c.AssistantNote), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// NotifyUrgent sends the doctor a short alert followed by the PDF summary.
func (s *Service) NotifyUrgent(ctx context.Context, c consultation.Consultation) error {
	if s.tgClient == nil || s.doctorChatID == 0 {
		return errNoRecipient
	}

	if err := s.tgClient.SendMessage(ctx, s.doctorChatID, alertText(c)); err != nil {
		return err
	}

	data, err := s.Render(c)
	if err != nil {
		return err
	}
	fileName := fmt.Sprintf("report_%s.pdf", c.ID.String())
	if err := s.tgClient.SendDocument(ctx, s.doctorChatID, data, fileName); err != nil {
		return err
	}
	s.log.Info("urgent report sent", zap.Stringer("consultation_id", c.ID), zap.Int64("chat_id", s.doctorChatID))
	return nil
}

func alertText(c consultation.Consultation) string {
	var b strings.Builder
	b.WriteString("URGENT triage case\n")
	if rf := c.Session.RedFlag; rf != nil {
		b.WriteString(rf.Message + "\n")
	}
	fmt.Fprintf(&b, "Symptom: %s\n", orDash(c.Session.PrimarySymptom))
	fmt.Fprintf(&b, "Consultation: %s", c.ID)
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
