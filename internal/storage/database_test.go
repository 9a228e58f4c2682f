package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studytrace/internal/domain"
	"github.com/conorfennell/studytrace/internal/review"
)

var now = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(id, url string, tags ...string) domain.Record {
	return domain.Record{
		ID:          id,
		Source:      domain.RecordSource{URL: url, Title: "Title " + id, Domain: "example.com"},
		CapturedAt:  now,
		TextHash:    "hash-" + id,
		TextPreview: "preview",
		FullText:    "full text",
		Tags:        tags,
		Status:      domain.RecordCreated,
	}
}

func TestCards_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	state := review.Initialize(now)
	card := domain.Card{
		ID:        "card_1",
		Title:     "Goroutines",
		Summary:   "Lightweight threads",
		KeyPoints: []string{"cheap", "scheduled by the runtime"},
		Terms:     []domain.Term{{Term: "M:N", Definition: "many goroutines on few threads"}},
		SelfQuiz:  []domain.QuizItem{{Q: "What is a goroutine?", A: "A function running concurrently"}},
		CreatedAt: now,
		Review:    &state,
	}
	require.NoError(t, db.InsertCard(ctx, card))

	got, err := db.GetCard(ctx, "card_1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, card.Title, got.Title)
	assert.Equal(t, card.KeyPoints, got.KeyPoints)
	assert.Equal(t, card.Terms, got.Terms)
	assert.Equal(t, card.SelfQuiz, got.SelfQuiz)
	assert.Empty(t, got.Misconceptions)
	require.NotNil(t, got.Review)
	assert.Nil(t, got.Review.LastReviewedAt)
	require.NotNil(t, got.Review.NextReviewAt)
	assert.True(t, got.Review.NextReviewAt.Equal(*state.NextReviewAt))
	assert.Equal(t, 2.5, got.Review.EaseFactor)
	assert.Equal(t, 1, got.Review.Interval)
}

func TestCards_WithoutReviewState(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.InsertCard(ctx, domain.Card{ID: "card_new", Title: "New", CreatedAt: now}))

	got, err := db.GetCard(ctx, "card_new")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Review)
}

func TestGetCard_NotFound(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetCard(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateReviewState(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	initial := review.Initialize(now)
	require.NoError(t, db.InsertCard(ctx, domain.Card{ID: "card_1", Title: "T", CreatedAt: now, Review: &initial}))

	reviewedAt := now.Add(25 * time.Hour)
	next := review.Advance(initial, 5, reviewedAt)
	ok, err := db.UpdateReviewState(ctx, "card_1", next, domain.ReviewLog{CardID: "card_1", ReviewedAt: reviewedAt, Quality: 5, Interval: next.Interval})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := db.GetCard(ctx, "card_1")
	require.NoError(t, err)
	require.NotNil(t, got.Review)
	assert.Equal(t, 1, got.Review.ReviewCount)
	assert.InDelta(t, 2.6, got.Review.EaseFactor, 1e-9)
	require.NotNil(t, got.Review.LastReviewedAt)
	assert.True(t, got.Review.LastReviewedAt.Equal(reviewedAt))

	logs, err := db.ReviewLogs(ctx, "card_1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 5, logs[0].Quality)

	ok, err = db.UpdateReviewState(ctx, "missing", next, domain.ReviewLog{CardID: "missing", ReviewedAt: reviewedAt})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListCards_Limit(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	for i, id := range []string{"card_a", "card_b", "card_c"} {
		require.NoError(t, db.InsertCard(ctx, domain.Card{ID: id, Title: id, CreatedAt: now.Add(time.Duration(i) * time.Minute)}))
	}

	cards, err := db.ListCards(ctx, 2)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "card_c", cards[0].ID)
	assert.Equal(t, "card_b", cards[1].ID)
}

func TestUpdateAndDeleteCard(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, db.InsertCard(ctx, domain.Card{ID: "card_1", Title: "Old", CreatedAt: now}))

	ok, err := db.UpdateCardContent(ctx, domain.Card{ID: "card_1", Title: "New", Misconceptions: []string{"x"}})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := db.GetCard(ctx, "card_1")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, []string{"x"}, got.Misconceptions)

	ok, err = db.DeleteCard(ctx, "card_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.DeleteCard(ctx, "card_1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecords_Lookup(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.InsertRecord(ctx, testRecord("rec_1", "https://example.com/a", "go")))
	require.NoError(t, db.InsertRecord(ctx, testRecord("rec_2", "https://example.com/b")))

	byURL, err := db.FindRecordByURL(ctx, "https://example.com/a")
	require.NoError(t, err)
	require.NotNil(t, byURL)
	assert.Equal(t, "rec_1", byURL.ID)
	assert.Equal(t, []string{"go"}, byURL.Tags)
	assert.Equal(t, domain.RecordCreated, byURL.Status)

	byHash, err := db.FindRecordByHash(ctx, "hash-rec_2")
	require.NoError(t, err)
	require.NotNil(t, byHash)
	assert.Equal(t, "rec_2", byHash.ID)

	missing, err := db.FindRecordByURL(ctx, "https://example.com/none")
	require.NoError(t, err)
	assert.Nil(t, missing)

	sameDomain, err := db.RecordsByDomain(ctx, "example.com", "https://example.com/a", 5)
	require.NoError(t, err)
	require.Len(t, sameDomain, 1)
	assert.Equal(t, "rec_2", sameDomain[0].ID)

	r := *byURL
	r.TextHash = "changed"
	r.Status = domain.RecordUpdated
	require.NoError(t, db.UpdateRecordContent(ctx, r))
	updated, err := db.GetRecord(ctx, "rec_1")
	require.NoError(t, err)
	assert.Equal(t, "changed", updated.TextHash)
	assert.Equal(t, domain.RecordUpdated, updated.Status)
}

func TestRelatedCards(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, db.InsertRecord(ctx, testRecord("rec_go", "https://example.com/go", "go", "concurrency")))
	require.NoError(t, db.InsertRecord(ctx, testRecord("rec_chan", "https://example.com/chan", "concurrency")))
	require.NoError(t, db.InsertRecord(ctx, testRecord("rec_css", "https://example.com/css", "css")))

	require.NoError(t, db.InsertCard(ctx, domain.Card{ID: "card_go", RecordID: "rec_go", Title: "Go", CreatedAt: now}))
	require.NoError(t, db.InsertCard(ctx, domain.Card{ID: "card_chan", RecordID: "rec_chan", Title: "Channels", CreatedAt: now}))
	require.NoError(t, db.InsertCard(ctx, domain.Card{ID: "card_css", RecordID: "rec_css", Title: "CSS", CreatedAt: now}))

	related, err := db.RelatedCards(ctx, "card_go", 5)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, "card_chan", related[0].ID)
}

func TestPlans_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	plan := domain.Plan{
		ID:        "plan_1",
		Date:      "2026-03-10",
		Items:     []domain.PlanItem{{Title: "Go", Action: "review", Reason: "overdue", CardID: "card_go"}},
		CreatedAt: now,
	}
	require.NoError(t, db.InsertPlan(ctx, plan))

	plans, err := db.ListPlans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, plan.Items, plans[0].Items)
	assert.Equal(t, "2026-03-10", plans[0].Date)
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id, err := db.InsertSource(ctx, "/notes", SourceLocal)
	require.NoError(t, err)

	s, err := db.FindSourceByPath(ctx, "/notes")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, id, s.ID)
	assert.False(t, s.LastScanned.Valid)

	require.NoError(t, db.UpdateSourceLastScanned(ctx, id, now))
	require.NoError(t, db.InsertCard(ctx, domain.Card{ID: "card_md", Title: "Q", ContentHash: "abc", SourceID: id, CreatedAt: now}))

	cards, err := db.GetCardsBySourceID(ctx, id)
	require.NoError(t, err)
	require.Len(t, cards, 1)

	otherID, err := db.InsertSource(ctx, "/other", SourceLocal)
	require.NoError(t, err)
	require.NoError(t, db.InsertCard(ctx, domain.Card{ID: "card_other", Title: "Q", ContentHash: "abc", SourceID: otherID, CreatedAt: now}))
	assert.Error(t, db.InsertCard(ctx, domain.Card{ID: "card_dup", Title: "Q", ContentHash: "abc", SourceID: id, CreatedAt: now}))

	ok, err := db.DeleteSource(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	cards, err = db.GetCardsBySourceID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, cards)
}
