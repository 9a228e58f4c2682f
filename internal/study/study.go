// Package study ties the review scheduler and ranker to card storage.
package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/conorfennell/studytrace/internal/domain"
	"github.com/conorfennell/studytrace/internal/metrics"
	"github.com/conorfennell/studytrace/internal/plan"
	"github.com/conorfennell/studytrace/internal/review"
)

var (
	ErrCardNotFound   = errors.New("card not found")
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidQuality = fmt.Errorf("quality must be between %d and %d", review.MinQuality, review.MaxQuality)
)

// Store is the storage the study service reads cards from and writes review
// state to. UpdateReviewState must be atomic per card.
type Store interface {
	GetCard(ctx context.Context, id string) (*domain.Card, error)
	ListCards(ctx context.Context, limit int) ([]domain.Card, error)
	InsertCard(ctx context.Context, c domain.Card) error
	UpdateCardContent(ctx context.Context, c domain.Card) (bool, error)
	DeleteCard(ctx context.Context, id string) (bool, error)
	UpdateReviewState(ctx context.Context, id string, s review.State, entry domain.ReviewLog) (bool, error)
	RelatedCards(ctx context.Context, cardID string, limit int) ([]domain.Card, error)
	GetRecord(ctx context.Context, id string) (*domain.Record, error)
	RecordsByDomain(ctx context.Context, domainName, excludeURL string, limit int) ([]domain.Record, error)
	InsertPlan(ctx context.Context, p domain.Plan) error
}

// Options configure a Service.
type Options struct {
	// ScanLimit bounds how many cards due lists and rankings consider.
	ScanLimit int
	Logger    *slog.Logger
	Metrics   metrics.Recorder
}

// Service implements review submission, due lists, suggestions and plans.
type Service struct {
	store     Store
	scheduler *review.Scheduler
	scanLimit int
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewService creates a Service. A zero ScanLimit means 1000 cards.
func NewService(store Store, scheduler *review.Scheduler, opts Options) *Service {
	if scheduler == nil {
		scheduler = review.NewScheduler(nil)
	}
	if opts.ScanLimit <= 0 {
		opts.ScanLimit = 1000
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNop()
	}
	return &Service{
		store:     store,
		scheduler: scheduler,
		scanLimit: opts.ScanLimit,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// ReviewResult is the outcome of a submitted review.
type ReviewResult struct {
	Card    domain.Card `json:"card"`
	Message string      `json:"message"`
}

// SubmitReview grades a review of a card and stores its next schedule.
// Quality outside [0, 5] is rejected with ErrInvalidQuality.
func (s *Service) SubmitReview(ctx context.Context, cardID string, quality int) (*ReviewResult, error) {
	if quality != review.ClampQuality(quality) {
		return nil, ErrInvalidQuality
	}

	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}

	current := s.scheduler.Initialize()
	if card.Review != nil {
		current = *card.Review
	}
	next := s.scheduler.Advance(current, quality)

	found, err := s.store.UpdateReviewState(ctx, cardID, next, domain.ReviewLog{
		CardID:     cardID,
		ReviewedAt: *next.LastReviewedAt,
		Quality:    quality,
		Interval:   next.Interval,
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCardNotFound
	}

	passed := quality >= 3
	s.metrics.RecordReview(passed)
	s.logger.Info("Review recorded",
		"card_id", cardID,
		"quality", quality,
		"interval", next.Interval,
		"ease_factor", next.EaseFactor,
	)

	card.Review = &next
	msg := "Needs relearning, review again tomorrow"
	if passed {
		msg = "Next review in " + review.FormatDays(next.Interval)
	}
	return &ReviewResult{Card: *card, Message: msg}, nil
}

// DueCards returns up to limit cards that are due now.
func (s *Service) DueCards(ctx context.Context, limit int) ([]domain.Card, error) {
	cards, err := s.store.ListCards(ctx, s.scanLimit)
	if err != nil {
		return nil, err
	}
	due := review.Due(cards, s.scheduler.Now())
	if limit >= 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// Suggestions is a ranked suggestion list with its statistics.
type Suggestions struct {
	Suggestions []review.Suggestion `json:"suggestions"`
	Stats       review.Stats        `json:"stats"`
	Message     string              `json:"message"`
}

// Suggest ranks the stored cards and returns the top limit suggestions.
func (s *Service) Suggest(ctx context.Context, limit int) (*Suggestions, error) {
	cards, suggestions, err := s.rank(ctx, limit)
	if err != nil {
		return nil, err
	}
	stats := review.Summarize(len(cards), suggestions)
	return &Suggestions{Suggestions: suggestions, Stats: stats, Message: stats.Headline()}, nil
}

func (s *Service) rank(ctx context.Context, limit int) ([]domain.Card, []review.Suggestion, error) {
	cards, err := s.store.ListCards(ctx, s.scanLimit)
	if err != nil {
		return nil, nil, err
	}
	s.metrics.ObserveRanked(len(cards))
	return cards, review.Rank(cards, limit, s.scheduler.Now()), nil
}

// planCandidates is how many ranked suggestions a smart plan draws from.
const planCandidates = 20

// PlanResult is a generated plan with counts of what it covers.
type PlanResult struct {
	Plan  domain.Plan  `json:"plan"`
	Stats review.Stats `json:"stats"`
}

// SmartPlan builds and stores a review plan for date from the most urgent cards.
// An empty date means today.
func (s *Service) SmartPlan(ctx context.Context, date string) (*PlanResult, error) {
	now := s.scheduler.Now()
	if date == "" {
		date = now.Format(plan.DateLayout)
	}

	_, suggestions, err := s.rank(ctx, planCandidates)
	if err != nil {
		return nil, err
	}
	items, err := plan.Build(suggestions, func(id string) (*domain.Card, error) {
		return s.store.GetCard(ctx, id)
	}, plan.DefaultItems)
	if err != nil {
		return nil, err
	}

	p := domain.Plan{
		ID:        domain.NewID("plan"),
		Date:      date,
		Items:     items,
		CreatedAt: now,
	}
	if err := s.store.InsertPlan(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Plan generated", "plan_id", p.ID, "date", date, "items", len(items))
	return &PlanResult{Plan: p, Stats: plan.Counts(suggestions)}, nil
}

// CreateCard stores a client supplied card with a fresh review schedule.
// A card that names a record must name an existing one.
func (s *Service) CreateCard(ctx context.Context, c domain.Card) (*domain.Card, error) {
	if c.RecordID != "" {
		rec, err := s.store.GetRecord(ctx, c.RecordID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, ErrRecordNotFound
		}
	}

	state := s.scheduler.Initialize()
	c.ID = domain.NewID("card")
	c.CreatedAt = s.scheduler.Now()
	c.Review = &state
	if err := s.store.InsertCard(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCard returns a card or ErrCardNotFound.
func (s *Service) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	card, err := s.store.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// UpdateCard applies an edit to a card's content.
func (s *Service) UpdateCard(ctx context.Context, id string, u domain.CardUpdate) (*domain.Card, error) {
	card, err := s.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Apply(card)
	found, err := s.store.UpdateCardContent(ctx, *card)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// DeleteCard removes a card.
func (s *Service) DeleteCard(ctx context.Context, id string) error {
	found, err := s.store.DeleteCard(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrCardNotFound
	}
	return nil
}

// RelatedCards returns cards whose records share a tag with the card's record.
func (s *Service) RelatedCards(ctx context.Context, id string, limit int) ([]domain.Card, error) {
	return s.store.RelatedCards(ctx, id, limit)
}

// MemoryHint points at an earlier record relevant to the page being read.
type MemoryHint struct {
	RecordID string `json:"recordId"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
}

// Hints is the response to a memory hints lookup.
type Hints struct {
	Related          []MemoryHint `json:"related"`
	SuggestedActions []string     `json:"suggestedActions"`
}

// MemoryHints lists up to five earlier records from the same site as pageURL.
func (s *Service) MemoryHints(ctx context.Context, pageURL string) (*Hints, error) {
	host := hostOf(pageURL)
	hints := &Hints{Related: []MemoryHint{}, SuggestedActions: []string{}}
	if host == "" {
		return hints, nil
	}

	records, err := s.store.RecordsByDomain(ctx, host, pageURL, 5)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		hints.Related = append(hints.Related, MemoryHint{
			RecordID: r.ID,
			Title:    r.Source.Title,
			Reason:   "You studied similar content on this site before",
		})
	}
	if len(hints.Related) > 0 {
		hints.SuggestedActions = []string{"Revisit your earlier learning records", "Take the self-test"}
	}
	return hints, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
