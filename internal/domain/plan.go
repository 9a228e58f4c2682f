package domain

import "time"

// Plan is a dated list of review tasks.
type Plan struct {
	ID        string     `json:"id"`
	Date      string     `json:"date"`
	Items     []PlanItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
}

// PlanItem is one actionable entry of a plan.
type PlanItem struct {
	Title    string `json:"title"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
	RecordID string `json:"recordId,omitempty"`
	CardID   string `json:"cardId,omitempty"`
}
