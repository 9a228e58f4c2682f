// Package web serves the StudyTrace JSON API.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/studytrace/internal/ingest"
	"github.com/conorfennell/studytrace/internal/storage"
	"github.com/conorfennell/studytrace/internal/study"
	"github.com/conorfennell/studytrace/internal/sync"
)

// Deps holds the dependencies of the HTTP server.
type Deps struct {
	DB       *storage.DB
	Study    *study.Service
	Ingester *ingest.Ingester
	Syncer   *sync.Syncer
	Validate *validator.Validate
	// Metrics serves GET /metrics when set.
	Metrics     http.Handler
	Logger      *slog.Logger
	AllowOrigin string
	// SuggestionLimit and DueLimit are the default list sizes.
	SuggestionLimit int
	DueLimit        int
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	Deps
	router *http.ServeMux
}

// NewServer creates and configures a new server.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validate == nil {
		deps.Validate = validator.New(validator.WithRequiredStructEnabled())
	}
	if deps.SuggestionLimit <= 0 {
		deps.SuggestionLimit = 10
	}
	if deps.DueLimit <= 0 {
		deps.DueLimit = 20
	}
	s := &Server{Deps: deps, router: http.NewServeMux()}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.AllowOrigin != "" {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.AllowOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /health", s.handleHealth())
	if s.Metrics != nil {
		s.router.Handle("GET /metrics", s.Metrics)
	}

	s.router.HandleFunc("POST /v1/ingest", s.handleIngest())
	s.router.HandleFunc("GET /v1/records", s.handleListRecords())

	s.router.HandleFunc("POST /v1/cards", s.handleCreateCard())
	s.router.HandleFunc("GET /v1/cards", s.handleListCards())
	s.router.HandleFunc("GET /v1/cards/{id}", s.handleGetCard())
	s.router.HandleFunc("PUT /v1/cards/{id}", s.handleUpdateCard())
	s.router.HandleFunc("DELETE /v1/cards/{id}", s.handleDeleteCard())
	s.router.HandleFunc("GET /v1/cards/{id}/related", s.handleRelatedCards())
	s.router.HandleFunc("POST /v1/cards/{id}/review", s.handlePostReview())

	s.router.HandleFunc("GET /v1/review/due", s.handleDueCards())
	s.router.HandleFunc("GET /v1/review/suggestions", s.handleSuggestions())

	s.router.HandleFunc("POST /v1/plans/generate/smart", s.handleSmartPlan())
	s.router.HandleFunc("GET /v1/plans", s.handleListPlans())

	s.router.HandleFunc("GET /v1/memory/hints", s.handleMemoryHints())

	// Source management routes
	s.router.HandleFunc("GET /v1/sources", s.handleGetSources())
	s.router.HandleFunc("POST /v1/sources", s.handlePostSource())
	s.router.HandleFunc("DELETE /v1/sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /v1/sync", s.handlePostSync())
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.DB.Ping(r.Context()); err != nil {
			s.Logger.Error("Health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleIngest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ingest.Request
		if !s.decode(w, r, &req) {
			return
		}
		res, err := s.Ingester.Ingest(r.Context(), req)
		if err != nil {
			s.fail(w, err)
			return
		}
		status := http.StatusOK
		if res.Outcome == ingest.Created {
			status = http.StatusCreated
		}
		writeJSON(w, status, res)
	}
}

func (s *Server) handleListRecords() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryLimit(w, r, 20)
		if !ok {
			return
		}
		records, err := s.DB.ListRecords(r.Context(), limit)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records})
	}
}

func (s *Server) handleSuggestions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryLimit(w, r, s.SuggestionLimit)
		if !ok {
			return
		}
		res, err := s.Study.Suggest(r.Context(), limit)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleDueCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryLimit(w, r, s.DueLimit)
		if !ok {
			return
		}
		cards, err := s.Study.DueCards(r.Context(), limit)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards, "count": len(cards)})
	}
}

type planRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleSmartPlan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req planRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
			return
		}
		if err := s.Validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		res, err := s.Study.SmartPlan(r.Context(), req.Date)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func (s *Server) handleListPlans() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryLimit(w, r, 20)
		if !ok {
			return
		}
		plans, err := s.DB.ListPlans(r.Context(), limit)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"plans": plans})
	}
}

func (s *Server) handleMemoryHints() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageURL := r.URL.Query().Get("url")
		if pageURL == "" {
			writeError(w, http.StatusBadRequest, "bad_request", "url is required")
			return
		}
		hints, err := s.Study.MemoryHints(r.Context(), pageURL)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, hints)
	}
}

// decode reads a JSON body into v and validates it, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body: "+err.Error())
		return false
	}
	if err := s.Validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return false
	}
	return true
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, study.ErrCardNotFound), errors.Is(err, study.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, study.ErrInvalidQuality), errors.Is(err, ingest.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		s.Logger.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "Internal Server Error")
	}
}

func queryLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
