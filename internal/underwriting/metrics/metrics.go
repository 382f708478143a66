package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the underwriting module.
type Metrics struct {
	// Decisions by status and normalized loan purpose
	Decisions *prometheus.CounterVec

	// Negotiation rounds processed
	Negotiations prometheus.Counter

	// Full pipeline latency
	EvaluateLatency prometheus.Histogram
}

// New creates a Metrics instance with all underwriting metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wfap_underwriting_decisions_total",
			Help: "Total underwriting decisions by status and loan purpose",
		}, []string{"status", "purpose"}),

		Negotiations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wfap_underwriting_negotiations_total",
			Help: "Total negotiation rounds processed",
		}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wfap_underwriting_evaluate_duration_seconds",
			Help:    "Duration of full underwriting evaluation",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}

// IncrementDecision records one decision outcome.
func (m *Metrics) IncrementDecision(status, purpose string) {
	if m != nil {
		m.Decisions.WithLabelValues(status, purpose).Inc()
	}
}

// IncrementNegotiation records one negotiation round.
func (m *Metrics) IncrementNegotiation() {
	if m != nil {
		m.Negotiations.Inc()
	}
}

// ObserveEvaluateLatency records the pipeline duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}
