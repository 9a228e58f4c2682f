package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus is a Recorder backed by Prometheus collectors.
type Prometheus struct {
	reviews *prometheus.CounterVec
	ingests *prometheus.CounterVec
	ranked  prometheus.Histogram
	gather  prometheus.Gatherer
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus registers the studytrace collectors on a fresh registry.
// An empty namespace defaults to "studytrace".
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "studytrace"
	}
	reg := prometheus.NewRegistry()

	p := &Prometheus{
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Submitted card reviews by outcome.",
		}, []string{"outcome"}),
		ingests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingests_total",
			Help:      "Captured pages by ingest outcome.",
		}, []string{"outcome"}),
		ranked: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ranked_cards",
			Help:      "Number of cards scored per ranking call.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000},
		}),
		gather: reg,
	}
	reg.MustRegister(p.reviews, p.ingests, p.ranked)
	return p
}

// RecordReview counts a review as passed or failed.
func (p *Prometheus) RecordReview(passed bool) {
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	p.reviews.WithLabelValues(outcome).Inc()
}

// RecordIngest counts an ingest outcome.
func (p *Prometheus) RecordIngest(outcome string) {
	p.ingests.WithLabelValues(outcome).Inc()
}

// ObserveRanked records the size of a ranked card set.
func (p *Prometheus) ObserveRanked(cards int) {
	p.ranked.Observe(float64(cards))
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gather, promhttp.HandlerOpts{})
}
