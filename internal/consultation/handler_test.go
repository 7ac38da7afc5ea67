package consultation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Ranjith-47/care-navigator/internal/consultation"
	"github.com/Ranjith-47/care-navigator/internal/refdata"
	"github.com/Ranjith-47/care-navigator/internal/triage"
)

type fakeRenderer struct {
	err error
}

func (f fakeRenderer) Render(c consultation.Consultation) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-fake " + c.ID.String()), nil
}

func newTestServer(t *testing.T, r consultation.Renderer) *httptest.Server {
	t.Helper()
	tables, err := refdata.Default()
	if err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, nil, nil)
	h := consultation.NewHandler(svc, r, consultation.Directory{Hotlines: tables.Hotlines, Guidelines: tables.Guidelines}, nil)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		consultation.RegisterRoutes(r, h)
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func createConsultation(t *testing.T, srv *httptest.Server) consultation.CreateConsultationResponse {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/consultations", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	var out consultation.CreateConsultationResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestHandlerCreateAndMessage(t *testing.T) {
	srv := newTestServer(t, fakeRenderer{})

	created := createConsultation(t, srv)
	if _, err := uuid.Parse(created.ConsultationID); err != nil {
		t.Fatalf("invalid consultation id %q", created.ConsultationID)
	}
	if len(created.Messages) != 1 || created.Messages[0] != triage.Greeting {
		t.Fatalf("expected greeting, got %v", created.Messages)
	}

	base := srv.URL + "/api/consultations/" + created.ConsultationID
	resp := postJSON(t, base+"/messages", `{"text":"I have chest pain"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("message: status %d", resp.StatusCode)
	}
	var turn map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		t.Fatal(err)
	}
	rec, _ := turn["recommendation"].(map[string]any)
	if rec["level"] != "urgent" {
		t.Fatalf("expected urgent level, got %v", turn["recommendation"])
	}
	fac, _ := turn["facilities"].(map[string]any)
	if hospitals, _ := fac["hospitals"].([]any); len(hospitals) == 0 {
		t.Fatalf("expected hospitals, got %v", turn["facilities"])
	}

	get, err := http.Get(base)
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	var view map[string]any
	json.NewDecoder(get.Body).Decode(&view)
	if view["is_complete"] != true {
		t.Errorf("expected stored consultation complete, got %v", view["is_complete"])
	}
}

func TestHandlerControlsFollowStep(t *testing.T) {
	srv := newTestServer(t, fakeRenderer{})
	created := createConsultation(t, srv)
	base := srv.URL + "/api/consultations/" + created.ConsultationID

	for _, in := range []string{"stomach ache", "nausea", "no"} {
		postJSON(t, base+"/messages", `{"text":"`+in+`"}`)
	}

	resp, err := http.Get(base)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var view consultation.ConsultationView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if view.Session.Step != triage.StepDuration {
		t.Fatalf("expected duration step, got %d", view.Session.Step)
	}
	if len(view.Controls) != 1 || len(view.Controls[0].Options) != len(triage.DurationOptions) {
		t.Fatalf("expected duration options, got %+v", view.Controls)
	}
}

func TestHandlerRejectsBadInput(t *testing.T) {
	srv := newTestServer(t, fakeRenderer{})
	created := createConsultation(t, srv)
	base := srv.URL + "/api/consultations/"

	cases := []struct {
		name string
		url  string
		body string
		want int
	}{
		{"missing text", base + created.ConsultationID + "/messages", `{}`, http.StatusBadRequest},
		{"wrong type", base + created.ConsultationID + "/messages", `{"text":5}`, http.StatusBadRequest},
		{"not json", base + created.ConsultationID + "/messages", `text`, http.StatusBadRequest},
		{"bad id", base + "not-a-uuid/messages", `{"text":"fever"}`, http.StatusBadRequest},
		{"unknown id", base + uuid.NewString() + "/messages", `{"text":"fever"}`, http.StatusNotFound},
		{"lat out of range", srv.URL + "/api/facilities/nearest", `{"lat":120,"lng":80}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, tc.url, tc.body)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestHandlerReset(t *testing.T) {
	srv := newTestServer(t, fakeRenderer{})
	created := createConsultation(t, srv)
	base := srv.URL + "/api/consultations/" + created.ConsultationID

	postJSON(t, base+"/messages", `{"text":"headache"}`)
	resp := postJSON(t, base+"/reset", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: status %d", resp.StatusCode)
	}
	var out consultation.CreateConsultationResponse
	json.NewDecoder(resp.Body).Decode(&out)
	if out.ConsultationID != created.ConsultationID || out.Step != triage.StepIntent {
		t.Fatalf("unexpected reset response %+v", out)
	}
}

func TestHandlerReport(t *testing.T) {
	srv := newTestServer(t, fakeRenderer{})
	created := createConsultation(t, srv)

	resp, err := http.Get(srv.URL + "/api/consultations/" + created.ConsultationID + "/report")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type %q", ct)
	}
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if !strings.HasPrefix(buf.String(), "%PDF") {
		t.Errorf("unexpected body %q", buf.String())
	}
}

func TestHandlerReportFailure(t *testing.T) {
	srv := newTestServer(t, fakeRenderer{err: errors.New("no fonts")})
	created := createConsultation(t, srv)

	resp, err := http.Get(srv.URL + "/api/consultations/" + created.ConsultationID + "/report")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestHandlerFacilitiesAndReference(t *testing.T) {
	srv := newTestServer(t, fakeRenderer{})

	resp, err := http.Get(srv.URL + "/api/facilities?category=respiratory&severity=9")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var res struct {
		Hospitals  []map[string]any `json:"hospitals"`
		MapsSearch string           `json:"mapsSearch"`
	}
	json.NewDecoder(resp.Body).Decode(&res)
	if len(res.Hospitals) == 0 || len(res.Hospitals) > 3 || res.MapsSearch == "" {
		t.Fatalf("unexpected facilities response %+v", res)
	}

	bad, err := http.Get(srv.URL + "/api/facilities?severity=high")
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for bad severity, got %d", bad.StatusCode)
	}

	near := postJSON(t, srv.URL+"/api/facilities/nearest", `{"lat":13.08,"lng":80.27}`)
	var nearRes struct {
		Hospitals []struct {
			Name     string   `json:"name"`
			Distance *float64 `json:"distance"`
		} `json:"hospitals"`
	}
	json.NewDecoder(near.Body).Decode(&nearRes)
	if len(nearRes.Hospitals) != 3 || nearRes.Hospitals[0].Distance == nil {
		t.Fatalf("unexpected nearest response %+v", nearRes)
	}

	hot, err := http.Get(srv.URL + "/api/hotlines")
	if err != nil {
		t.Fatal(err)
	}
	defer hot.Body.Close()
	var hotlines []refdata.Hotline
	json.NewDecoder(hot.Body).Decode(&hotlines)
	if len(hotlines) == 0 || hotlines[0].Number != "108" {
		t.Fatalf("expected 108 first, got %+v", hotlines)
	}

	gl, err := http.Get(srv.URL + "/api/guidelines")
	if err != nil {
		t.Fatal(err)
	}
	defer gl.Body.Close()
	var guidelines []refdata.Guideline
	json.NewDecoder(gl.Body).Decode(&guidelines)
	if len(guidelines) == 0 {
		t.Fatal("expected guidelines")
	}
}

func TestHandlerWebsocket(t *testing.T) {
	srv := newTestServer(t, fakeRenderer{})
	created := createConsultation(t, srv)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/consultations/" + created.ConsultationID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(consultation.MessageRequest{Text: "cough"}); err != nil {
		t.Fatal(err)
	}
	var turn consultation.Turn
	if err := conn.ReadJSON(&turn); err != nil {
		t.Fatal(err)
	}
	if turn.Step != triage.StepFirstSymptoms || len(turn.Messages) == 0 {
		t.Fatalf("unexpected turn %+v", turn)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"nope":1}`)); err != nil {
		t.Fatal(err)
	}
	var errFrame map[string]string
	if err := conn.ReadJSON(&errFrame); err != nil {
		t.Fatal(err)
	}
	if errFrame["error"] == "" {
		t.Fatalf("expected error frame, got %v", errFrame)
	}
}

func TestHandlerWebsocketUnknownConsultation(t *testing.T) {
	srv := newTestServer(t, fakeRenderer{})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/consultations/" + uuid.NewString() + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", resp)
	}
}

// failingRepository stores normally until failSaves is set.
type failingRepository struct {
	*consultation.MemoryRepository
	failSaves atomic.Bool
}

func (r *failingRepository) Save(ctx context.Context, c *consultation.Consultation) error {
	if r.failSaves.Load() {
		return errors.New("disk full")
	}
	return r.MemoryRepository.Save(ctx, c)
}

func TestHandlerWebsocketReportsSubmitFailure(t *testing.T) {
	tables, err := refdata.Default()
	if err != nil {
		t.Fatal(err)
	}
	repo := &failingRepository{MemoryRepository: consultation.NewMemoryRepository()}
	ranker := tables.Ranker()
	svc := consultation.NewService(repo, tables.Engine(ranker), ranker, nil, nil, nil)
	t.Cleanup(svc.Close)

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		consultation.RegisterRoutes(r, consultation.NewHandler(svc, fakeRenderer{}, consultation.Directory{}, nil))
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	c, err := svc.CreateConsultation(context.Background(), uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	repo.failSaves.Store(true)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/consultations/" + c.ID.String() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(consultation.MessageRequest{Text: "cough"}); err != nil {
		t.Fatal(err)
	}
	var frame map[string]string
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatal(err)
	}
	if frame["error"] != "processing failed" {
		t.Fatalf("expected processing failure frame, got %v", frame)
	}
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to close after a failed submit")
	}
}
