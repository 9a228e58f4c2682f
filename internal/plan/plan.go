// Package plan turns review suggestions into a dated list of review tasks.
package plan

import (
	"time"

	"github.com/conorfennell/studytrace/internal/domain"
	"github.com/conorfennell/studytrace/internal/review"
)

// DefaultItems is the maximum number of items in a generated plan.
const DefaultItems = 10

// DateLayout is the layout of plan dates.
const DateLayout = time.DateOnly

// ActionFor returns the recommended review action for an urgency.
func ActionFor(u review.Urgency) string {
	switch u {
	case review.UrgencyOverdue:
		return "Urgent re-review: revisit the card and complete the self-test"
	case review.UrgencyNew:
		return "First review: read the card and understand the key points"
	default:
		return "Routine review: quick recap and self-test"
	}
}

// actionable reports whether a suggestion belongs in today's plan.
func actionable(u review.Urgency) bool {
	return u == review.UrgencyOverdue || u == review.UrgencyDueToday || u == review.UrgencyNew
}

// CardLookup resolves the card behind a suggestion. It returns nil when the
// card no longer exists.
type CardLookup func(cardID string) (*domain.Card, error)

// Build creates plan items for the overdue, due-today and new suggestions, in
// suggestion order, up to limit. Suggestions whose card cannot be found are
// skipped. A limit of zero or less means DefaultItems.
// Cards without a record are kept with an empty RecordID.
func Build(suggestions []review.Suggestion, lookup CardLookup, limit int) ([]domain.PlanItem, error) {
	if limit <= 0 {
		limit = DefaultItems
	}

	items := []domain.PlanItem{}
	for _, s := range suggestions {
		if len(items) == limit {
			break
		}
		if !actionable(s.Urgency) {
			continue
		}
		card, err := lookup(s.CardID)
		if err != nil {
			return nil, err
		}
		if card == nil {
			continue
		}
		items = append(items, domain.PlanItem{
			Title:    s.Title,
			Action:   ActionFor(s.Urgency),
			Reason:   s.Message,
			RecordID: card.RecordID,
			CardID:   s.CardID,
		})
	}
	return items, nil
}

// Counts tallies the actionable suggestions by urgency.
func Counts(suggestions []review.Suggestion) review.Stats {
	var actionableOnly []review.Suggestion
	for _, s := range suggestions {
		if actionable(s.Urgency) {
			actionableOnly = append(actionableOnly, s)
		}
	}
	return review.Summarize(len(actionableOnly), actionableOnly)
}
