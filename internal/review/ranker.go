package review

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DefaultLimit is the number of suggestions Rank returns when callers have no preference.
const DefaultLimit = 10

// Urgency classifies how pressing a card's next review is.
type Urgency string

const (
	UrgencyNew      Urgency = "new"
	UrgencyOverdue  Urgency = "overdue"
	UrgencyDueToday Urgency = "due_today"
	UrgencyUpcoming Urgency = "upcoming"
)

// Card is anything that can be scheduled for review.
type Card interface {
	ReviewID() string
	ReviewTitle() string
	ReviewState() *State
}

// Suggestion is a ranked review recommendation for one card.
type Suggestion struct {
	CardID   string  `json:"cardId"`
	Title    string  `json:"title"`
	Urgency  Urgency `json:"urgency"`
	Priority float64 `json:"priority"`
	Message  string  `json:"message"`
}

// scheduled reports whether a state carries a due date.
func scheduled(s *State) bool {
	return s != nil && s.NextReviewAt != nil
}

// Due returns the cards that have never been scheduled or whose next review
// is at or before now, in input order.
func Due[C Card](cards []C, now time.Time) []C {
	due := make([]C, 0, len(cards))
	for _, c := range cards {
		s := c.ReviewState()
		if !scheduled(s) || !s.NextReviewAt.After(now) {
			due = append(due, c)
		}
	}
	return due
}

// PriorityScore rates how urgently a card with the given state should be
// reviewed. Unscheduled cards score 100. Overdue cards gain 10 points per day
// past due, upcoming cards lose 5 points per day until due, floored at 0.
func PriorityScore(s *State, now time.Time) float64 {
	if !scheduled(s) {
		return 100
	}

	overdueDays := daysBetween(*s.NextReviewAt, now)
	if overdueDays > 0 {
		return 50 + overdueDays*10
	}
	return math.Max(0, 50+overdueDays*5)
}

// Rank scores and classifies every card and returns at most limit
// suggestions, highest priority first. Cards of equal priority keep their
// input order. Urgency uses calendar days in now's location.
func Rank[C Card](cards []C, limit int, now time.Time) []Suggestion {
	if limit <= 0 || len(cards) == 0 {
		return []Suggestion{}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)

	suggestions := make([]Suggestion, 0, len(cards))
	for _, c := range cards {
		s := c.ReviewState()
		urgency, message := classify(s, today, tomorrow)
		suggestions = append(suggestions, Suggestion{
			CardID:   c.ReviewID(),
			Title:    c.ReviewTitle(),
			Urgency:  urgency,
			Priority: PriorityScore(s, now),
			Message:  message,
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority > suggestions[j].Priority
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

func classify(s *State, today, tomorrow time.Time) (Urgency, string) {
	if !scheduled(s) {
		return UrgencyNew, "New card, review it for the first time today"
	}

	next := *s.NextReviewAt
	switch {
	case next.Before(today):
		return UrgencyOverdue, fmt.Sprintf("Overdue by %s, memory may be fading", FormatDays(ceilDays(next, today)))
	case next.Before(tomorrow):
		return UrgencyDueToday, "Due for review today"
	default:
		return UrgencyUpcoming, "Review in " + FormatDays(ceilDays(today, next))
	}
}

func ceilDays(from, to time.Time) int {
	return int(math.Ceil(daysBetween(from, to)))
}

// FormatDays renders a day count such as "1 day" or "3 days".
func FormatDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// Stats summarizes a set of suggestions.
type Stats struct {
	Total    int `json:"total"`
	Overdue  int `json:"overdue"`
	DueToday int `json:"dueToday"`
	NewCards int `json:"newCards"`
}

// Summarize counts suggestions by urgency. Total is the size of the card set
// the suggestions were ranked from.
func Summarize(total int, suggestions []Suggestion) Stats {
	st := Stats{Total: total}
	for _, s := range suggestions {
		switch s.Urgency {
		case UrgencyOverdue:
			st.Overdue++
		case UrgencyDueToday:
			st.DueToday++
		case UrgencyNew:
			st.NewCards++
		}
	}
	return st
}

// Headline is a one-line description of the most pressing review work.
func (st Stats) Headline() string {
	switch {
	case st.Overdue > 0:
		return fmt.Sprintf("%d cards are overdue, review them first", st.Overdue)
	case st.DueToday > 0:
		return fmt.Sprintf("%d cards to review today", st.DueToday)
	default:
		return "No urgent reviews"
	}
}
