// Package metrics defines the Prometheus collectors used by the intake and
// analytics services and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Similarity lookup kinds.
const (
	KindIdea    = "idea"
	KindText    = "text"
	KindProblem = "problem"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInFlight   prometheus.Gauge
	SimilarityLookupsTotal *prometheus.CounterVec
	SimilarityLatency      *prometheus.HistogramVec
	SimilarityMatches      *prometheus.HistogramVec
	CorpusSize             prometheus.Gauge
	CacheHitsTotal         prometheus.Counter
	CacheMissesTotal       prometheus.Counter
	RecordWritesTotal      *prometheus.CounterVec
	EventsDroppedTotal     prometheus.Counter
	EventPublishFailures   prometheus.Counter
	CircuitBreakerState    *prometheus.GaugeVec
}

// New creates all collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SimilarityLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "similarity_lookups_total",
				Help: "Similarity lookups by kind (idea, text, problem) and result (match, empty, not_found, error).",
			},
			[]string{"kind", "result"},
		),
		SimilarityLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "similarity_latency_seconds",
				Help:    "Similarity lookup latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"kind", "cache_status"},
		),
		SimilarityMatches: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "similarity_matches_count",
				Help:    "Number of ideas returned per similarity lookup.",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"kind"},
		),
		CorpusSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "similarity_corpus_size",
				Help: "Number of ideas scored by the most recent similarity pass.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of similarity cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of similarity cache misses.",
			},
		),
		RecordWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "intake_record_writes_total",
				Help: "Writes to ideas and problems by entity and operation.",
			},
			[]string{"entity", "operation"},
		),
		EventsDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_events_dropped_total",
				Help: "Analytics events dropped because the buffer was full.",
			},
		),
		EventPublishFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "analytics_publish_failures_total",
				Help: "Analytics batches that could not be published.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SimilarityLookupsTotal,
		m.SimilarityLatency,
		m.SimilarityMatches,
		m.CorpusSize,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RecordWritesTotal,
		m.EventsDroppedTotal,
		m.EventPublishFailures,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
