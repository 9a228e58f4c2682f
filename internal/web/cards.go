package web

import (
	"net/http"

	"github.com/conorfennell/studytrace/internal/domain"
)

type cardRequest struct {
	RecordID       string            `json:"recordId"`
	Title          string            `json:"title" validate:"required"`
	Summary        string            `json:"summary"`
	KeyPoints      []string          `json:"keyPoints"`
	Terms          []domain.Term     `json:"terms" validate:"omitempty,dive"`
	Misconceptions []string          `json:"misconceptions"`
	SelfQuiz       []domain.QuizItem `json:"selfQuiz" validate:"omitempty,dive"`
}

type reviewRequest struct {
	Quality *int `json:"quality" validate:"required"`
}

func (s *Server) handleCreateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cardRequest
		if !s.decode(w, r, &req) {
			return
		}
		card, err := s.Study.CreateCard(r.Context(), domain.Card{
			RecordID:       req.RecordID,
			Title:          req.Title,
			Summary:        req.Summary,
			KeyPoints:      req.KeyPoints,
			Terms:          req.Terms,
			Misconceptions: req.Misconceptions,
			SelfQuiz:       req.SelfQuiz,
		})
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, card)
	}
}

func (s *Server) handleListCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryLimit(w, r, 20)
		if !ok {
			return
		}
		cards, err := s.DB.ListCards(r.Context(), limit)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

func (s *Server) handleGetCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := s.Study.GetCard(r.Context(), r.PathValue("id"))
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleUpdateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u domain.CardUpdate
		if !s.decode(w, r, &u) {
			return
		}
		card, err := s.Study.UpdateCard(r.Context(), r.PathValue("id"), u)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Study.DeleteCard(r.Context(), r.PathValue("id")); err != nil {
			s.fail(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRelatedCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryLimit(w, r, 5)
		if !ok {
			return
		}
		cards, err := s.Study.RelatedCards(r.Context(), r.PathValue("id"), limit)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

// handlePostReview grades a review and returns the card's next schedule.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewRequest
		if !s.decode(w, r, &req) {
			return
		}
		res, err := s.Study.SubmitReview(r.Context(), r.PathValue("id"), *req.Quality)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
