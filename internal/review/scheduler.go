// Package review schedules spaced-repetition reviews of knowledge cards and
// ranks cards by how urgently they need one. The functions are pure given an
// explicit current time; Scheduler binds them to a clock.
package review

import (
	"math"
	"time"
)

const (
	// MinQuality and MaxQuality bound the quality score of a review.
	// 0: complete blackout, 5: perfect recall. Anything below 3 is a failure.
	MinQuality = 0
	MaxQuality = 5

	passingQuality    = 3
	initialEaseFactor = 2.5
	minEaseFactor     = 1.3
	initialInterval   = 1
	secondsPerDay     = 24 * 60 * 60

	// MaxInterval caps the gap in days so due dates stay representable.
	// It is about 2700 years.
	MaxInterval = 1_000_000
)

// defaultIntervals are the gaps in days used for the first successful reviews
// after a reset. The Nth success uses defaultIntervals[N-1].
var defaultIntervals = [...]int{1, 2, 4, 7, 15, 30}

// State is the review schedule of a single card.
type State struct {
	LastReviewedAt *time.Time `json:"lastReviewedAt,omitempty"`
	NextReviewAt   *time.Time `json:"nextReviewAt,omitempty"`
	ReviewCount    int        `json:"reviewCount"`
	EaseFactor     float64    `json:"easeFactor"`
	Interval       int        `json:"interval"`
}

// Initialize returns the state of a card that has never been reviewed.
// The first review is due one day after now.
func Initialize(now time.Time) State {
	next := addDays(now, initialInterval)
	return State{
		NextReviewAt: &next,
		ReviewCount:  0,
		EaseFactor:   initialEaseFactor,
		Interval:     initialInterval,
	}
}

// Advance records a review of the given quality at now and returns the next state.
// Quality is clamped into [MinQuality, MaxQuality]. The input state is not modified.
func Advance(s State, quality int, now time.Time) State {
	q := ClampQuality(quality)

	reviewed := now
	next := s
	next.LastReviewedAt = &reviewed
	next.ReviewCount++
	if next.ReviewCount < 1 {
		next.ReviewCount = 1
	}

	if q < passingQuality {
		next.Interval = initialInterval
		next.ReviewCount = 0
	} else if next.ReviewCount <= len(defaultIntervals) {
		next.Interval = defaultIntervals[next.ReviewCount-1]
	} else {
		next.Interval = scaleInterval(next.Interval, next.EaseFactor)
	}
	next.Interval = min(MaxInterval, max(1, next.Interval))

	next.EaseFactor = nextEaseFactor(next.EaseFactor, q)

	due := addDays(reviewed, next.Interval)
	next.NextReviewAt = &due
	return next
}

// addDays moves t forward by n 24-hour days. Unlike t.Add it cannot overflow
// for any interval up to MaxInterval.
func addDays(t time.Time, n int) time.Time {
	return time.Unix(t.Unix()+int64(n)*secondsPerDay, int64(t.Nanosecond())).In(t.Location())
}

// daysBetween returns b - a in fractional 24-hour days.
func daysBetween(a, b time.Time) float64 {
	secs := float64(b.Unix() - a.Unix())
	nanos := float64(b.Nanosecond() - a.Nanosecond())
	return (secs + nanos/1e9) / secondsPerDay
}

// scaleInterval multiplies interval by ease, rounding and saturating at MaxInterval.
func scaleInterval(interval int, ease float64) int {
	f := math.Round(float64(interval) * ease)
	if !(f < MaxInterval) {
		return MaxInterval
	}
	if f < 1 {
		return 1
	}
	return int(f)
}

// ClampQuality forces a quality score into [MinQuality, MaxQuality].
func ClampQuality(quality int) int {
	return min(MaxQuality, max(MinQuality, quality))
}

// nextEaseFactor applies the SM-2 ease recurrence with a floor of 1.3.
func nextEaseFactor(ef float64, quality int) float64 {
	miss := float64(MaxQuality - quality)
	delta := 0.1 - miss*(0.08+miss*0.02)
	ef += delta
	// A state read from storage may carry a non-finite or sub-floor value.
	if math.IsNaN(ef) || ef < minEaseFactor {
		return minEaseFactor
	}
	return ef
}

// Scheduler binds the review transitions to a clock.
type Scheduler struct {
	now func() time.Time
}

// NewScheduler returns a Scheduler reading the given clock.
// A nil clock means time.Now.
func NewScheduler(clock func() time.Time) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{now: clock}
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Initialize returns a fresh state due one day from now.
func (s *Scheduler) Initialize() State {
	return Initialize(s.now())
}

// Advance records a review of the given quality now.
func (s *Scheduler) Advance(state State, quality int) State {
	return Advance(state, quality, s.now())
}
