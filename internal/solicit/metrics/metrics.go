package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the solicitation module.
type Metrics struct {
	// Peer outcomes by peer name and outcome kind
	PeerOutcomes *prometheus.CounterVec

	// Per-peer exchange latency
	PeerLatency *prometheus.HistogramVec

	// Full solicitation latency
	SolicitLatency prometheus.Histogram
}

// New creates a Metrics instance with all solicitation metrics registered.
func New() *Metrics {
	return &Metrics{
		PeerOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wfap_solicit_peer_outcomes_total",
			Help: "Total peer exchange outcomes by peer and kind",
		}, []string{"peer", "kind"}),

		PeerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wfap_solicit_peer_duration_seconds",
			Help:    "Duration of individual peer exchanges",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"peer"}),

		SolicitLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wfap_solicit_duration_seconds",
			Help:    "Duration of full solicitations across all peers",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// IncrementOutcome records one peer outcome.
func (m *Metrics) IncrementOutcome(peer, kind string) {
	if m != nil {
		m.PeerOutcomes.WithLabelValues(peer, kind).Inc()
	}
}

// ObservePeerLatency records one peer exchange duration.
func (m *Metrics) ObservePeerLatency(peer string, d time.Duration) {
	if m != nil {
		m.PeerLatency.WithLabelValues(peer).Observe(d.Seconds())
	}
}

// ObserveSolicitLatency records a full solicitation duration.
func (m *Metrics) ObserveSolicitLatency(d time.Duration) {
	if m != nil {
		m.SolicitLatency.Observe(d.Seconds())
	}
}
