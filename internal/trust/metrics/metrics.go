package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the trust score engine.
type Metrics struct {
	// Evidence gathering latencies by source
	EvidenceLatency *prometheus.HistogramVec

	// Recompute outcomes: "ok", "not_found", "evidence_unavailable", "persist_failed"
	RecomputeOutcome *prometheus.CounterVec

	// Full recompute latency including evidence gathering and the write
	RecomputeLatency prometheus.Histogram

	// Tier of each freshly computed score
	TierAssigned *prometheus.CounterVec

	// Score cache lookups by result: "hit", "miss", "error", "bypass"
	CacheLookups *prometheus.CounterVec
}

// New creates a Metrics instance with all trust metrics registered.
func New() *Metrics {
	return &Metrics{
		EvidenceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crafted_trust_evidence_duration_seconds",
			Help:    "Duration of evidence reads by source",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"source"}), // source: "worker", "identity", "certification", "skill_proof", "history"

		RecomputeOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crafted_trust_recompute_total",
			Help: "Trust score recomputes by outcome",
		}, []string{"outcome"}),

		RecomputeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crafted_trust_recompute_duration_seconds",
			Help:    "Duration of a full trust score recompute",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		TierAssigned: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crafted_trust_tier_assigned_total",
			Help: "Tier of each recomputed trust score",
		}, []string{"tier"}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crafted_trust_cache_lookups_total",
			Help: "Trust score cache lookups by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveEvidenceLatency(source string, d time.Duration) {
	if m != nil {
		m.EvidenceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.RecomputeOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveRecomputeLatency(d time.Duration) {
	if m != nil {
		m.RecomputeLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementTier(tier string) {
	if m != nil {
		m.TierAssigned.WithLabelValues(tier).Inc()
	}
}

func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncrementCacheLookupN counts n lookups of one batch read.
func (m *Metrics) IncrementCacheLookupN(result string, n int) {
	if m != nil && n > 0 {
		m.CacheLookups.WithLabelValues(result).Add(float64(n))
	}
}
