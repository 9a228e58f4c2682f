package review

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCard struct {
	id    string
	state *State
}

func (c testCard) ReviewID() string    { return c.id }
func (c testCard) ReviewTitle() string { return "title " + c.id }
func (c testCard) ReviewState() *State { return c.state }

func dueAt(t time.Time) *State {
	return &State{NextReviewAt: &t, EaseFactor: 2.5, Interval: 1}
}

func ids(cards []testCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.id)
	}
	return out
}

func TestDue(t *testing.T) {
	cards := []testCard{
		{id: "future", state: dueAt(fixedNow.Add(time.Minute))},
		{id: "new"},
		{id: "exact", state: dueAt(fixedNow)},
		{id: "unscheduled", state: &State{EaseFactor: 2.5, Interval: 1}},
		{id: "past", state: dueAt(fixedNow.Add(-72 * time.Hour))},
	}

	got := Due(cards, fixedNow)

	assert.Equal(t, []string{"new", "exact", "unscheduled", "past"}, ids(got))
}

func TestDue_Empty(t *testing.T) {
	assert.Empty(t, Due([]testCard{}, fixedNow))
	assert.Empty(t, Due[testCard](nil, fixedNow))
}

func TestPriorityScore(t *testing.T) {
	testCases := []struct {
		name     string
		state    *State
		expected float64
	}{
		{name: "absent", state: nil, expected: 100},
		{name: "no due date", state: &State{}, expected: 100},
		{name: "due now", state: dueAt(fixedNow), expected: 50},
		{name: "two days overdue", state: dueAt(fixedNow.Add(-48 * time.Hour)), expected: 70},
		{name: "half day overdue", state: dueAt(fixedNow.Add(-12 * time.Hour)), expected: 55},
		{name: "four days out", state: dueAt(fixedNow.Add(96 * time.Hour)), expected: 30},
		{name: "far future floors at zero", state: dueAt(fixedNow.Add(30 * 24 * time.Hour)), expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, PriorityScore(tc.state, fixedNow), 1e-9)
		})
	}
}

func TestRank_Classification(t *testing.T) {
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	cards := []testCard{
		{id: "upcoming", state: dueAt(today.Add(2*24*time.Hour + 6*time.Hour))},
		{id: "overdue", state: dueAt(today.AddDate(0, 0, -3))},
		{id: "today-later", state: dueAt(fixedNow.Add(2 * time.Hour))},
		{id: "today-earlier", state: dueAt(today.Add(time.Hour))},
		{id: "new"},
	}

	got := Rank(cards, DefaultLimit, fixedNow)
	require.Len(t, got, 5)

	byID := make(map[string]Suggestion, len(got))
	for _, s := range got {
		byID[s.CardID] = s
	}

	assert.Equal(t, UrgencyNew, byID["new"].Urgency)
	assert.Equal(t, 100.0, byID["new"].Priority)
	assert.Equal(t, "title new", byID["new"].Title)

	assert.Equal(t, UrgencyOverdue, byID["overdue"].Urgency)
	assert.Contains(t, byID["overdue"].Message, "3")

	assert.Equal(t, UrgencyDueToday, byID["today-later"].Urgency)
	assert.Equal(t, UrgencyDueToday, byID["today-earlier"].Urgency)

	assert.Equal(t, UrgencyUpcoming, byID["upcoming"].Urgency)
	assert.Contains(t, byID["upcoming"].Message, "3 days")

	assert.Equal(t, "new", got[0].CardID)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Priority, got[i].Priority)
	}
}

func TestRank_OverdueUsesMidnight(t *testing.T) {
	// Earlier today but before now: due by the clock, not overdue by the calendar.
	s := dueAt(fixedNow.Add(-10 * time.Hour))
	cards := []testCard{{id: "a", state: s}}

	got := Rank(cards, 1, fixedNow)
	require.Len(t, got, 1)
	assert.Equal(t, UrgencyDueToday, got[0].Urgency)
	assert.Len(t, Due(cards, fixedNow), 1)
}

func TestRank_StableTies(t *testing.T) {
	cards := []testCard{{id: "n1"}, {id: "n2"}, {id: "old", state: dueAt(fixedNow.AddDate(0, 0, 10))}, {id: "n3"}}

	got := Rank(cards, 10, fixedNow)

	require.Len(t, got, 4)
	assert.Equal(t, []string{"n1", "n2", "n3", "old"}, []string{got[0].CardID, got[1].CardID, got[2].CardID, got[3].CardID})
}

func TestRank_Limit(t *testing.T) {
	cards := []testCard{{id: "a"}, {id: "b"}, {id: "c"}}

	assert.Empty(t, Rank(cards, 0, fixedNow))
	assert.Empty(t, Rank(cards, -1, fixedNow))
	assert.NotNil(t, Rank(cards, 0, fixedNow))
	assert.Len(t, Rank(cards, 2, fixedNow), 2)
	assert.Len(t, Rank(cards, 50, fixedNow), 3)
	assert.Empty(t, Rank([]testCard{}, 5, fixedNow))
}

func TestSummarize(t *testing.T) {
	suggestions := []Suggestion{
		{Urgency: UrgencyOverdue},
		{Urgency: UrgencyOverdue},
		{Urgency: UrgencyDueToday},
		{Urgency: UrgencyNew},
		{Urgency: UrgencyUpcoming},
	}

	st := Summarize(9, suggestions)

	assert.Equal(t, Stats{Total: 9, Overdue: 2, DueToday: 1, NewCards: 1}, st)
	assert.Contains(t, st.Headline(), "2 cards are overdue")
	assert.Contains(t, Stats{DueToday: 4}.Headline(), "4 cards to review today")
	assert.Equal(t, "No urgent reviews", Stats{}.Headline())
}

func TestRank_SingularDayMessages(t *testing.T) {
	today := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	cards := []testCard{
		{id: "yesterday", state: dueAt(today.Add(-time.Hour))},
		{id: "tomorrow", state: dueAt(today.AddDate(0, 0, 1))},
	}

	got := Rank(cards, 2, fixedNow)
	require.Len(t, got, 2)

	assert.Equal(t, "Overdue by 1 day, memory may be fading", got[0].Message)
	assert.Equal(t, "Review in 1 day", got[1].Message)
}

func TestRank_FarFutureDueDate(t *testing.T) {
	far := fixedNow.AddDate(0, 0, MaxInterval)
	cards := []testCard{{id: "far", state: dueAt(far)}}

	got := Rank(cards, 1, fixedNow)
	require.Len(t, got, 1)
	assert.Equal(t, UrgencyUpcoming, got[0].Urgency)
	assert.Equal(t, 0.0, got[0].Priority)
	assert.Equal(t, "Review in "+FormatDays(MaxInterval+1), got[0].Message)
	assert.Empty(t, Due(cards, fixedNow))
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "0 days", FormatDays(0))
	assert.Equal(t, "1 day", FormatDays(1))
	assert.Equal(t, "2 days", FormatDays(2))
}
