package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for evidence submission and review.
type Metrics struct {
	Submissions *prometheus.CounterVec
	Reviews     *prometheus.CounterVec
	Expired     prometheus.Counter
}

// New creates a Metrics instance with all evidence metrics registered.
func New() *Metrics {
	return &Metrics{
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crafted_evidence_submissions_total",
			Help: "Evidence items submitted for review by kind",
		}, []string{"kind"}), // kind: "identity_document", "certification", "skill_proof"

		Reviews: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crafted_evidence_reviews_total",
			Help: "Reviewer decisions by evidence kind and decision",
		}, []string{"kind", "decision"}),

		Expired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crafted_evidence_identity_documents_expired_total",
			Help: "Verified identity documents moved to expired",
		}),
	}
}

func (m *Metrics) IncrementSubmission(kind string) {
	if m != nil {
		m.Submissions.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) IncrementReview(kind, decision string) {
	if m != nil {
		m.Reviews.WithLabelValues(kind, decision).Inc()
	}
}

func (m *Metrics) IncrementExpired() {
	if m != nil {
		m.Expired.Inc()
	}
}
