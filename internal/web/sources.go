package web

import (
	"net/http"
	"strconv"

	"github.com/conorfennell/studytrace/internal/sync"
)

type sourceRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) handleGetSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.DB.GetAllSources(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
	}
}

// handlePostSource adds a new source. Adding a known path returns the existing one.
func (s *Server) handlePostSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req sourceRequest
		if !s.decode(w, r, &req) {
			return
		}

		existing, err := s.DB.FindSourceByPath(r.Context(), req.Path)
		if err != nil {
			s.fail(w, err)
			return
		}
		if existing != nil {
			writeJSON(w, http.StatusOK, existing)
			return
		}

		sourceType := sync.SourceType(req.Path)
		if _, err := s.DB.InsertSource(r.Context(), req.Path, sourceType); err != nil {
			s.fail(w, err)
			return
		}
		created, err := s.DB.FindSourceByPath(r.Context(), req.Path)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid source ID")
			return
		}
		found, err := s.DB.DeleteSource(r.Context(), id)
		if err != nil {
			s.fail(w, err)
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "not_found", "source not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePostSync runs a sync in the foreground and reports per-source results.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := s.Syncer.RunSync(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
	}
}
