package apiv1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"clinical-consult-assistant/internal/infra/api/apiv1"
	"clinical-consult-assistant/internal/infra/extract"
	"clinical-consult-assistant/internal/infra/memory"
	"clinical-consult-assistant/internal/usecase"
)

//
// ---------------- in-memory infra fakes ----------------
//

type fakeCompletion struct {
	mu      sync.Mutex
	replies []string
	calls   int
	failAt  int // 1-based call index that fails; 0 = never
}

func (f *fakeCompletion) Complete(ctx context.Context, model, system, prompt string, temperature float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failAt != 0 && f.calls == f.failAt {
		return "", errors.New("completion unavailable")
	}
	if len(f.replies) > 0 {
		r := f.replies[0]
		f.replies = f.replies[1:]
		return r, nil
	}
	return "ok", nil
}

// echoExtractor returns the uploaded bytes as extracted text.
type echoExtractor struct{}

func (echoExtractor) ExtractText(ctx context.Context, r io.ReaderAt, size int64) (string, error) {
	b := make([]byte, size)
	if _, err := r.ReadAt(b, 0); err != nil && err != io.EOF {
		return "", err
	}
	return string(b), nil
}

func newTestRouter(ai *fakeCompletion) http.Handler {
	repo := memory.NewSessionRepo()
	pipeline := usecase.NewDiagnosisPipeline(ai, "gpt-4o-mini", 0.2)
	logger := zerolog.Nop()
	uc := usecase.NewConsultUseCase(repo, pipeline, echoExtractor{}, extract.NewRegexSnapshotExtractor(), &logger)
	return apiv1.NewServer(uc, &logger).Router()
}

func createConsult(t *testing.T, r http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consults", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		ConsultID string `json:"consult_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ConsultID == "" {
		t.Fatal("empty consult_id")
	}
	return body.ConsultID
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

//
// ---------------- tests ----------------
//

func TestMessageTurn(t *testing.T) {
	ai := &fakeCompletion{replies: []string{"iron deficiency anemia", "Any recent blood loss?"}}
	r := newTestRouter(ai)
	id := createConsult(t, r)

	rec := postJSON(r, "/api/v1/consults/"+id+"/messages", `{"content":"patient has fatigue"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		FollowupQuestion string `json:"followup_question"`
		Diagnosis        string `json:"diagnosis"`
		Disclaimer       string `json:"disclaimer"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.FollowupQuestion != "Any recent blood loss?" {
		t.Fatalf("followup = %q", body.FollowupQuestion)
	}
	if body.Diagnosis != "iron deficiency anemia" {
		t.Fatalf("diagnosis = %q", body.Diagnosis)
	}
	if body.Disclaimer == "" {
		t.Fatal("a diagnosis must always carry the disclaimer")
	}
}

func TestGetConsultRendersTranscriptInOrder(t *testing.T) {
	ai := &fakeCompletion{replies: []string{"dx", "q1", "dx", "q2"}}
	r := newTestRouter(ai)
	id := createConsult(t, r)

	postJSON(r, "/api/v1/consults/"+id+"/messages", `{"content":"first"}`)
	postJSON(r, "/api/v1/consults/"+id+"/messages", `{"content":"second"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/consults/"+id+"/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
	}

	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Diagnosis  string `json:"diagnosis"`
		Disclaimer string `json:"disclaimer"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantRoles := []string{"user", "assistant", "user", "assistant"}
	wantContent := []string{"first", "q1", "second", "q2"}
	if len(body.Messages) != 4 {
		t.Fatalf("want 4 messages, got %d", len(body.Messages))
	}
	for i := range body.Messages {
		if body.Messages[i].Role != wantRoles[i] || body.Messages[i].Content != wantContent[i] {
			t.Fatalf("message %d mismatch: %+v", i, body.Messages[i])
		}
	}
	if body.Diagnosis != "dx" || body.Disclaimer == "" {
		t.Fatalf("diagnosis view: %q / %q", body.Diagnosis, body.Disclaimer)
	}
}

func TestDocumentUploadFeedsSnapshot(t *testing.T) {
	r := newTestRouter(&fakeCompletion{})
	id := createConsult(t, r)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("history", "history.pdf")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write([]byte("Age: 45, Gender: Female, HbA1c: 7.2"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/consults/"+id+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/consults/"+id+"/", nil)
	getRec := httptest.NewRecorder()
	r.ServeHTTP(getRec, getReq)

	var body struct {
		Snapshot struct {
			Age    *string  `json:"age"`
			Gender *string  `json:"gender"`
			HbA1c  *float64 `json:"hba1c"`
			Name   *string  `json:"name"`
		} `json:"patient_snapshot"`
	}
	if err := json.NewDecoder(getRec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Snapshot.Age == nil || *body.Snapshot.Age != "45" {
		t.Fatalf("age = %v", body.Snapshot.Age)
	}
	if body.Snapshot.Gender == nil || *body.Snapshot.Gender != "Female" {
		t.Fatalf("gender = %v", body.Snapshot.Gender)
	}
	if body.Snapshot.HbA1c == nil || *body.Snapshot.HbA1c != 7.2 {
		t.Fatalf("hba1c = %v", body.Snapshot.HbA1c)
	}
	if body.Snapshot.Name != nil {
		t.Fatalf("name should be absent, got %q", *body.Snapshot.Name)
	}
}

func TestUploadWithoutDocuments(t *testing.T) {
	r := newTestRouter(&fakeCompletion{})
	id := createConsult(t, r)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "nothing here")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/consults/"+id+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestResetClearsState(t *testing.T) {
	ai := &fakeCompletion{replies: []string{"dx", "q"}}
	r := newTestRouter(ai)
	id := createConsult(t, r)

	postJSON(r, "/api/v1/consults/"+id+"/messages", `{"content":"hello"}`)

	rec := postJSON(r, "/api/v1/consults/"+id+"/reset", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d", rec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/consults/"+id+"/", nil)
	getRec := httptest.NewRecorder()
	r.ServeHTTP(getRec, getReq)

	var body struct {
		Messages  []json.RawMessage `json:"messages"`
		Diagnosis string            `json:"diagnosis"`
	}
	if err := json.NewDecoder(getRec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Messages) != 0 || body.Diagnosis != "" {
		t.Fatalf("reset did not clear state: %s", getRec.Body.String())
	}
}

func TestUnknownConsultIs404(t *testing.T) {
	r := newTestRouter(&fakeCompletion{})
	rec := postJSON(r, "/api/v1/consults/does-not-exist/messages", `{"content":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestEmptyMessageIs400(t *testing.T) {
	r := newTestRouter(&fakeCompletion{})
	id := createConsult(t, r)
	rec := postJSON(r, "/api/v1/consults/"+id+"/messages", `{"content":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestCompletionFailureIsFailedTurn(t *testing.T) {
	ai := &fakeCompletion{replies: []string{"dx", "q"}, failAt: 3}
	r := newTestRouter(ai)
	id := createConsult(t, r)

	if rec := postJSON(r, "/api/v1/consults/"+id+"/messages", `{"content":"first"}`); rec.Code != http.StatusOK {
		t.Fatalf("turn 1: %d", rec.Code)
	}
	if rec := postJSON(r, "/api/v1/consults/"+id+"/messages", `{"content":"second"}`); rec.Code != http.StatusBadGateway {
		t.Fatalf("want 502, got %d", rec.Code)
	}

	// Prior messages survive the failed turn.
	getReq := httptest.NewRequest(http.MethodGet, "/api/v1/consults/"+id+"/", nil)
	getRec := httptest.NewRecorder()
	r.ServeHTTP(getRec, getReq)
	var body struct {
		Messages []json.RawMessage `json:"messages"`
	}
	if err := json.NewDecoder(getRec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("want 2 messages after failed turn, got %d", len(body.Messages))
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&fakeCompletion{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}
