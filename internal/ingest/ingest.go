// Package ingest captures web page content as learning records, skipping
// pages that were already captured.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/studytrace/internal/domain"
	"github.com/conorfennell/studytrace/internal/knol"
)

// Outcome describes what an ingest did with the submitted page.
type Outcome string

const (
	Created   Outcome = "created"
	Updated   Outcome = "updated"
	Duplicate Outcome = "duplicate"
)

// ErrInvalidRequest is returned when a request is missing required fields.
var ErrInvalidRequest = errors.New("invalid ingest request")

// Store is the persistence the ingester needs.
type Store interface {
	FindRecordByURL(ctx context.Context, url string) (*domain.Record, error)
	FindRecordByHash(ctx context.Context, hash string) (*domain.Record, error)
	InsertRecord(ctx context.Context, r domain.Record) error
	UpdateRecordContent(ctx context.Context, r domain.Record) error
}

// Recorder observes ingest outcomes.
type Recorder interface {
	RecordIngest(outcome string)
}

// Request is a captured page.
type Request struct {
	URL    string `json:"url" validate:"required,url"`
	Title  string `json:"title" validate:"required"`
	Domain string `json:"domain"`
	Text   string `json:"text" validate:"required"`
}

// Result reports the record a page was stored as.
type Result struct {
	RecordID   string  `json:"recordId"`
	Outcome    Outcome `json:"outcome"`
	SimilarURL string  `json:"similarUrl,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// Options configure an Ingester.
type Options struct {
	MaxInputChars int
	PreviewChars  int
	Now           func() time.Time
	Logger        *slog.Logger
	Metrics       Recorder
}

// Ingester deduplicates and stores captured pages.
type Ingester struct {
	store    Store
	validate *validator.Validate
	opts     Options
}

// New creates an Ingester. Zero options fall back to 12000 input characters,
// a 500 character preview, time.Now and the default logger.
func New(store Store, validate *validator.Validate, opts Options) *Ingester {
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = 12000
	}
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = 500
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &Ingester{store: store, validate: validate, opts: opts}
}

// Ingest stores a captured page. A page whose URL is already known is updated
// if its text changed and reported as a duplicate otherwise. A page with new
// URL but known text is reported as a duplicate of the existing record.
func (in *Ingester) Ingest(ctx context.Context, req Request) (Result, error) {
	if err := in.validate.Struct(req); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	text := truncate(req.Text, in.opts.MaxInputChars)
	hash := knol.HashText(text)
	preview := truncate(text, in.opts.PreviewChars)

	existing, err := in.store.FindRecordByURL(ctx, req.URL)
	if err != nil {
		return Result{}, err
	}
	if existing != nil {
		if existing.TextHash == hash {
			return in.done(Result{RecordID: existing.ID, Outcome: Duplicate, Message: "Page already captured, content unchanged"}), nil
		}
		existing.TextHash = hash
		existing.TextPreview = preview
		existing.FullText = text
		existing.Status = domain.RecordUpdated
		if err := in.store.UpdateRecordContent(ctx, *existing); err != nil {
			return Result{}, err
		}
		in.opts.Logger.Info("Record content updated", "record_id", existing.ID, "url", req.URL)
		return in.done(Result{RecordID: existing.ID, Outcome: Updated, Message: "Page content updated"}), nil
	}

	similar, err := in.store.FindRecordByHash(ctx, hash)
	if err != nil {
		return Result{}, err
	}
	if similar != nil {
		return in.done(Result{
			RecordID:   similar.ID,
			Outcome:    Duplicate,
			SimilarURL: similar.Source.URL,
			Message:    "Similar content already captured",
		}), nil
	}

	domainName := req.Domain
	if domainName == "" {
		domainName = hostname(req.URL)
	}
	rec := domain.Record{
		ID:          domain.NewID("rec"),
		Source:      domain.RecordSource{URL: req.URL, Title: req.Title, Domain: domainName},
		CapturedAt:  in.opts.Now(),
		TextHash:    hash,
		TextPreview: preview,
		FullText:    text,
		Status:      domain.RecordCreated,
	}
	if err := in.store.InsertRecord(ctx, rec); err != nil {
		return Result{}, err
	}
	in.opts.Logger.Info("Record captured", "record_id", rec.ID, "url", req.URL)
	return in.done(Result{RecordID: rec.ID, Outcome: Created}), nil
}

func (in *Ingester) done(r Result) Result {
	if in.opts.Metrics != nil {
		in.opts.Metrics.RecordIngest(string(r.Outcome))
	}
	return r
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
