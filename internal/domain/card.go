package domain

import (
	"time"

	"github.com/conorfennell/studytrace/internal/review"
)

// Term is a glossary entry on a knowledge card.
type Term struct {
	Term       string `json:"term" validate:"required"`
	Definition string `json:"definition"`
}

// QuizItem is a self-test question with its answer.
type QuizItem struct {
	Q       string `json:"q" validate:"required"`
	A       string `json:"a"`
	Explain string `json:"explain"`
}

// Card is a knowledge card derived from a learning record or a markdown source.
type Card struct {
	ID             string        `json:"id"`
	RecordID       string        `json:"recordId,omitempty"`
	Title          string        `json:"title"`
	Summary        string        `json:"summary"`
	KeyPoints      []string      `json:"keyPoints"`
	Terms          []Term        `json:"terms"`
	Misconceptions []string      `json:"misconceptions"`
	SelfQuiz       []QuizItem    `json:"selfQuiz"`
	ContentHash    string        `json:"contentHash,omitempty"`
	SourceID       int64         `json:"sourceId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	Review         *review.State `json:"reviewStatus,omitempty"`
}

func (c Card) ReviewID() string           { return c.ID }
func (c Card) ReviewTitle() string        { return c.Title }
func (c Card) ReviewState() *review.State { return c.Review }

var _ review.Card = Card{}

// CardUpdate holds the editable fields of a card. Nil fields are left unchanged.
type CardUpdate struct {
	Title          *string    `json:"title" validate:"omitempty,min=1"`
	Summary        *string    `json:"summary"`
	KeyPoints      []string   `json:"keyPoints"`
	Terms          []Term     `json:"terms" validate:"omitempty,dive"`
	Misconceptions []string   `json:"misconceptions"`
	SelfQuiz       []QuizItem `json:"selfQuiz" validate:"omitempty,dive"`
}

// Apply copies the set fields of u onto c.
func (u CardUpdate) Apply(c *Card) {
	if u.Title != nil {
		c.Title = *u.Title
	}
	if u.Summary != nil {
		c.Summary = *u.Summary
	}
	if u.KeyPoints != nil {
		c.KeyPoints = u.KeyPoints
	}
	if u.Terms != nil {
		c.Terms = u.Terms
	}
	if u.Misconceptions != nil {
		c.Misconceptions = u.Misconceptions
	}
	if u.SelfQuiz != nil {
		c.SelfQuiz = u.SelfQuiz
	}
}
