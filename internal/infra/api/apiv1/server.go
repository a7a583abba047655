package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"clinical-consult-assistant/internal/domain"
	"clinical-consult-assistant/internal/domain/model"
	"clinical-consult-assistant/internal/infra/logging"
	"clinical-consult-assistant/internal/usecase"
)

// Server exposes the consult loop over a JSON API: create a consult, upload
// documents, exchange messages, reset for a new patient.
type Server struct {
	consults usecase.ConsultUseCase
	log      *zerolog.Logger
}

func NewServer(consults usecase.ConsultUseCase, logger *zerolog.Logger) *Server {
	return &Server{consults: consults, log: logger}
}

// Router builds the chi router with all v1 routes attached.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/consults", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{consultID}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Post("/documents", s.handleDocuments)
			r.Post("/messages", s.handleMessage)
			r.Post("/reset", s.handleReset)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
		logging.With(ctx, s.log).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// ---- Handlers ----

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.consults.StartConsult(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"consult_id": sess.ID})
}

type messageView struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type consultView struct {
	ConsultID  string                 `json:"consult_id"`
	Messages   []messageView          `json:"messages"`
	Diagnosis  string                 `json:"diagnosis,omitempty"`
	Disclaimer string                 `json:"disclaimer,omitempty"`
	Snapshot   *model.PatientSnapshot `json:"patient_snapshot,omitempty"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "consultID")

	sess, err := s.consults.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.consults.Snapshot(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := consultView{
		ConsultID: sess.ID,
		Messages:  make([]messageView, 0, len(sess.Messages)),
		Snapshot:  &snap,
	}
	for _, m := range sess.Messages {
		view.Messages = append(view.Messages, messageView{Role: string(m.Role), Content: m.Content})
	}
	// The disclaimer travels with the diagnosis, never without it.
	if sess.Diagnosis != "" {
		view.Diagnosis = sess.Diagnosis
		view.Disclaimer = usecase.Disclaimer
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "consultID")

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	history, err := formDocument(r, "history")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	labs, err := formDocument(r, "labs")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if history == nil && labs == nil {
		http.Error(w, "no document provided: expected part 'history' and/or 'labs'", http.StatusBadRequest)
		return
	}

	sess, err := s.consults.IngestDocuments(ctx, id, history, labs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"consult_id":     sess.ID,
		"history_loaded": sess.HistoryText != "",
		"labs_loaded":    sess.LabText != "",
	})
}

type messageRequest struct {
	Content string `json:"content"`
}

type turnResponse struct {
	FollowupQuestion string `json:"followup_question"`
	Diagnosis        string `json:"diagnosis,omitempty"`
	Disclaimer       string `json:"disclaimer,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithConsultID(r.Context(), chi.URLParam(r, "consultID"))
	id := chi.URLParam(r, "consultID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	turn, err := s.consults.SendMessage(ctx, id, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := turnResponse{FollowupQuestion: turn.FollowupQuestion}
	if turn.Diagnosis != "" {
		resp.Diagnosis = turn.Diagnosis
		resp.Disclaimer = usecase.Disclaimer
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.consults.Reset(r.Context(), chi.URLParam(r, "consultID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- helpers ----

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Completion service
// failures surface as a failed turn (502) without touching stored state.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
		http.Error(w, "upstream failure", http.StatusBadGateway)
	}
}

// formDocument pulls one optional uploaded part out of the multipart form.
func formDocument(r *http.Request, field string) (*usecase.Document, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, errors.New("invalid upload for part '" + field + "'")
	}
	return &usecase.Document{Reader: file, Size: header.Size}, nil
}
