package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordStatus tracks how far a learning record has been processed.
type RecordStatus string

const (
	RecordCreated    RecordStatus = "created"
	RecordSummarized RecordStatus = "summarized"
	RecordUpdated    RecordStatus = "updated"
	RecordFailed     RecordStatus = "failed"
)

// RecordSource is the page a record was captured from.
type RecordSource struct {
	URL    string `json:"url"`
	Title  string `json:"title"`
	Domain string `json:"domain"`
}

// Record is a captured piece of web page content.
type Record struct {
	ID          string       `json:"id"`
	Source      RecordSource `json:"source"`
	CapturedAt  time.Time    `json:"capturedAt"`
	TextHash    string       `json:"textHash,omitempty"`
	TextPreview string       `json:"textPreview,omitempty"`
	FullText    string       `json:"-"`
	Summary     string       `json:"summary,omitempty"`
	KeyPoints   []string     `json:"keyPoints,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Status      RecordStatus `json:"status"`
}

// ReviewLog records a single review event for a card.
// Quality is the clamped 0-5 score the review was graded with.
type ReviewLog struct {
	CardID     string    `json:"cardId"`
	ReviewedAt time.Time `json:"reviewedAt"`
	Quality    int       `json:"quality"`
	Interval   int       `json:"interval"`
}

// NewID returns a short identifier such as "card_1a2b3c4d".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}
