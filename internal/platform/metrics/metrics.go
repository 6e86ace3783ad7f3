package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide HTTP metrics. Module metrics live next to their
// module (see internal/trust/metrics).
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	WorkersCreated  prometheus.Counter
}

// New creates and registers all platform metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crafted_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status class",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		WorkersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crafted_workers_registered_total",
			Help: "Total number of workers registered",
		}),
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}

// IncrementWorkersCreated increments the registrations counter by 1.
func (m *Metrics) IncrementWorkersCreated() {
	if m != nil {
		m.WorkersCreated.Inc()
	}
}
