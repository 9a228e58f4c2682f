// Package metrics records review and ingest activity.
package metrics

// Recorder receives application events worth counting.
type Recorder interface {
	// RecordReview counts a submitted review; passed is false for quality below 3.
	RecordReview(passed bool)
	// RecordIngest counts an ingest by outcome (created, updated, duplicate).
	RecordIngest(outcome string)
	// ObserveRanked records how many cards a ranking call scored.
	ObserveRanked(cards int)
}

// Nop discards all metrics.
type Nop struct{}

var _ Recorder = Nop{}

// NewNop returns a Recorder that does nothing.
func NewNop() Nop { return Nop{} }

func (Nop) RecordReview(bool)   {}
func (Nop) RecordIngest(string) {}
func (Nop) ObserveRanked(int)   {}
