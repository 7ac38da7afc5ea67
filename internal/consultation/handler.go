package consultation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ranjith-47/care-navigator/internal/refdata"
	"github.com/Ranjith-47/care-navigator/internal/triage"
)

const maxBodyBytes = 64 << 10

// Renderer produces the printable summary of a consultation.
type Renderer interface {
	Render(c Consultation) ([]byte, error)
}

// Directory is the static reference content served alongside consultations.
type Directory struct {
	Hotlines   []refdata.Hotline
	Guidelines []refdata.Guideline
}

type Handler struct {
	svc     Service
	reports Renderer
	dir     Directory
	log     *zap.Logger
}

func NewHandler(svc Service, reports Renderer, dir Directory, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, reports: reports, dir: dir, log: log}
}

type CreateConsultationRequest struct {
	PatientID string `json:"patient_id"`
}

type CreateConsultationResponse struct {
	ConsultationID string           `json:"consultation_id"`
	Messages       []string         `json:"messages"`
	Controls       []triage.Control `json:"controls,omitempty"`
	Step           int              `json:"step"`
}

type MessageRequest struct {
	Text string `json:"text"`
}

type NearestRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ConsultationView is a stored consultation plus the controls for its
// current step.
type ConsultationView struct {
	*Consultation
	Controls []triage.Control `json:"controls,omitempty"`
}

func (h *Handler) CreateConsultation(w http.ResponseWriter, r *http.Request) {
	var req CreateConsultationRequest
	if !h.decode(w, r, createValidator, true, &req) {
		return
	}

	pid, err := uuid.Parse(req.PatientID)
	if err != nil {
		// Anonymous patients get a fresh id.
		pid = uuid.New()
	}

	c, err := h.svc.CreateConsultation(r.Context(), pid)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateConsultationResponse{
		ConsultationID: c.ID.String(),
		Messages:       []string{triage.Greeting},
		Controls:       triage.ControlsFor(&c.Session),
		Step:           c.Session.Step,
	})
}

func (h *Handler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetConsultation(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ConsultationView{Consultation: c, Controls: triage.ControlsFor(&c.Session)})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req MessageRequest
	if !h.decode(w, r, messageValidator, false, &req) {
		return
	}

	turn, err := h.svc.Submit(r.Context(), id, req.Text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Reset(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CreateConsultationResponse{
		ConsultationID: c.ID.String(),
		Messages:       []string{triage.Greeting},
		Step:           c.Session.Step,
	})
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	c, err := h.svc.GetConsultation(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := h.reports.Render(*c)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"report_%s.pdf\"", c.ID))
	w.Write(data)
}

func (h *Handler) Facilities(w http.ResponseWriter, r *http.Request) {
	severity := 0
	if raw := r.URL.Query().Get("severity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid severity", http.StatusBadRequest)
			return
		}
		severity = n
	}
	writeJSON(w, http.StatusOK, h.svc.RankFacilities(r.URL.Query().Get("category"), severity))
}

func (h *Handler) NearestFacilities(w http.ResponseWriter, r *http.Request) {
	var req NearestRequest
	if !h.decode(w, r, nearestValidator, false, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hospitals": h.svc.NearestFacilities(req.Lat, req.Lng),
	})
}

func (h *Handler) Hotlines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dir.Hotlines)
}

func (h *Handler) Guidelines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dir.Guidelines)
}

// decode validates the body against v and unmarshals it into dst. An empty
// body is treated as {} when allowEmpty is set.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v *bodyValidator, allowEmpty bool, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	if len(body) == 0 && allowEmpty {
		body = []byte("{}")
	}
	if err := v.Validate(body); err != nil {
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Consultation not found", http.StatusNotFound)
		return
	}
	h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid consultation ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/consultations", func(r chi.Router) {
		r.Post("/", h.CreateConsultation)
		r.Get("/{id}", h.GetConsultation)
		r.Post("/{id}/messages", h.SendMessage)
		r.Post("/{id}/reset", h.Reset)
		r.Get("/{id}/report", h.Report)
		r.Get("/{id}/ws", h.Stream)
	})
	r.Get("/facilities", h.Facilities)
	r.Post("/facilities/nearest", h.NearestFacilities)
	r.Get("/hotlines", h.Hotlines)
	r.Get("/guidelines", h.Guidelines)
}
