package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for authority resolution.
type Metrics struct {
	// Resolutions by record source (cache, upstream) and outcome (found, absent, error)
	Resolutions *prometheus.CounterVec

	// Cache operations by op (get, put) and result (hit, miss, error, ok)
	CacheOperations *prometheus.CounterVec

	// Latency of the outbound SPARQL request
	UpstreamLatency prometheus.Histogram

	// Rendered responses by format and status code
	Responses *prometheus.CounterVec
}

// New creates a Metrics instance registered with the given registerer.
// A nil registerer uses the prometheus default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nklink_resolutions_total",
			Help: "Authority ID resolutions by record source and outcome",
		}, []string{"source", "outcome"}),

		CacheOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nklink_cache_operations_total",
			Help: "Cache operations by operation and result",
		}, []string{"op", "result"}),

		UpstreamLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nklink_upstream_request_duration_seconds",
			Help:    "Duration of SPARQL endpoint requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		Responses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nklink_responses_total",
			Help: "Responses by requested format and HTTP status",
		}, []string{"format", "status"}),
	}
}

// IncrementResolution records where a record came from and what it was.
func (m *Metrics) IncrementResolution(source, outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(source, outcome).Inc()
	}
}

// IncrementCacheOperation records a cache get or put result.
func (m *Metrics) IncrementCacheOperation(op, result string) {
	if m != nil {
		m.CacheOperations.WithLabelValues(op, result).Inc()
	}
}

// ObserveUpstreamLatency records the duration of one SPARQL request.
func (m *Metrics) ObserveUpstreamLatency(d time.Duration) {
	if m != nil {
		m.UpstreamLatency.Observe(d.Seconds())
	}
}

// IncrementResponse records a rendered response.
func (m *Metrics) IncrementResponse(format string, status int) {
	if m != nil {
		m.Responses.WithLabelValues(format, statusLabel(status)).Inc()
	}
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
