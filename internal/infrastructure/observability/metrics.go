// Package observability exposes the service's Prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors the service updates. A single instance is
// created at wiring time and shared by the HTTP layer, the ledger service
// and the WebSocket hub.
type Metrics struct {
	// HTTPRequestDuration observes request latency by route and status class.
	HTTPRequestDuration *prometheus.HistogramVec

	// LedgerOperations counts ledger commands by operation and outcome.
	// The outcome label carries the error code for failures and "ok" for
	// successes, so stale-cache conflicts are distinguishable from real
	// failures on a dashboard.
	LedgerOperations *prometheus.CounterVec

	// TrustScoreComputations counts trust score reads.
	TrustScoreComputations prometheus.Counter

	// SuggestionsServed observes how many candidates each suggest call returned.
	SuggestionsServed prometheus.Histogram

	// HubConnections tracks currently registered WebSocket clients.
	HubConnections prometheus.Gauge

	// HubMessages counts fan-out messages by result.
	HubMessages *prometheus.CounterVec
}

// NewMetrics registers the collectors on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kinship",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),

		LedgerOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kinship",
			Name:      "ledger_operations_total",
			Help:      "Connection ledger commands by operation and outcome.",
		}, []string{"operation", "outcome"}),

		TrustScoreComputations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kinship",
			Name:      "trust_score_computations_total",
			Help:      "Trust score reads (always recomputed, never cached server-side).",
		}),

		SuggestionsServed: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kinship",
			Name:      "suggestions_served",
			Help:      "Number of candidates returned per suggestion call.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),

		HubConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kinship",
			Name:      "hub_connections",
			Help:      "Currently connected WebSocket clients.",
		}),

		HubMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kinship",
			Name:      "hub_messages_total",
			Help:      "WebSocket fan-out messages by result.",
		}, []string{"result"}),
	}
}

// NewDefaultMetrics registers on the default Prometheus registerer.
func NewDefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}
