package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/studytrace/internal/domain"
)

type memStore struct {
	records map[string]domain.Record
}

func newMemStore() *memStore {
	return &memStore{records: map[string]domain.Record{}}
}

func (m *memStore) FindRecordByURL(_ context.Context, url string) (*domain.Record, error) {
	for _, r := range m.records {
		if r.Source.URL == url {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindRecordByHash(_ context.Context, hash string) (*domain.Record, error) {
	for _, r := range m.records {
		if r.TextHash == hash {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) InsertRecord(_ context.Context, r domain.Record) error {
	m.records[r.ID] = r
	return nil
}

func (m *memStore) UpdateRecordContent(_ context.Context, r domain.Record) error {
	m.records[r.ID] = r
	return nil
}

type countingRecorder map[string]int

func (c countingRecorder) RecordIngest(outcome string) { c[outcome]++ }

func newTestIngester(store Store, rec Recorder) *Ingester {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	return New(store, nil, Options{
		MaxInputChars: 20,
		PreviewChars:  5,
		Now:           func() time.Time { return now },
		Metrics:       rec,
	})
}

func TestIngest_CreatesRecord(t *testing.T) {
	store := newMemStore()
	in := newTestIngester(store, nil)

	res, err := in.Ingest(context.Background(), Request{
		URL:   "https://go.dev/blog/pipelines",
		Title: "Pipelines",
		Text:  "Go concurrency patterns: pipelines and cancellation",
	})
	require.NoError(t, err)

	assert.Equal(t, Created, res.Outcome)
	assert.True(t, strings.HasPrefix(res.RecordID, "rec_"))

	rec := store.records[res.RecordID]
	assert.Equal(t, "go.dev", rec.Source.Domain)
	assert.Equal(t, "Go concurrency patte", rec.FullText)
	assert.Equal(t, "Go co", rec.TextPreview)
	assert.Equal(t, domain.RecordCreated, rec.Status)
}

func TestIngest_Dedup(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	rec := countingRecorder{}
	in := newTestIngester(store, rec)

	first, err := in.Ingest(ctx, Request{URL: "https://a.example/x", Title: "X", Text: "same text"})
	require.NoError(t, err)

	t.Run("same url same text", func(t *testing.T) {
		res, err := in.Ingest(ctx, Request{URL: "https://a.example/x", Title: "X", Text: "same  TEXT"})
		require.NoError(t, err)
		assert.Equal(t, Duplicate, res.Outcome)
		assert.Equal(t, first.RecordID, res.RecordID)
	})

	t.Run("different url same text", func(t *testing.T) {
		res, err := in.Ingest(ctx, Request{URL: "https://b.example/y", Title: "Y", Text: "same text"})
		require.NoError(t, err)
		assert.Equal(t, Duplicate, res.Outcome)
		assert.Equal(t, first.RecordID, res.RecordID)
		assert.Equal(t, "https://a.example/x", res.SimilarURL)
	})

	t.Run("same url new text", func(t *testing.T) {
		res, err := in.Ingest(ctx, Request{URL: "https://a.example/x", Title: "X", Text: "fresh text"})
		require.NoError(t, err)
		assert.Equal(t, Updated, res.Outcome)
		assert.Equal(t, first.RecordID, res.RecordID)
		assert.Equal(t, domain.RecordUpdated, store.records[first.RecordID].Status)
		assert.Equal(t, "fresh text", store.records[first.RecordID].FullText)
	})

	assert.Len(t, store.records, 1)
	assert.Equal(t, countingRecorder{"created": 1, "duplicate": 2, "updated": 1}, rec)
}

func TestIngest_Validation(t *testing.T) {
	in := newTestIngester(newMemStore(), nil)

	testCases := []struct {
		name string
		req  Request
	}{
		{name: "missing url", req: Request{Title: "t", Text: "x"}},
		{name: "bad url", req: Request{URL: "not a url", Title: "t", Text: "x"}},
		{name: "missing title", req: Request{URL: "https://a.example", Text: "x"}},
		{name: "missing text", req: Request{URL: "https://a.example", Title: "t"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := in.Ingest(context.Background(), tc.req)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 10))
}
