// Package metrics defines the Prometheus metric collectors used across the
// rental API and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	FAQQuestionsTotal    *prometheus.CounterVec
	FAQRetrievalLatency  *prometheus.HistogramVec
	FAQConfidence        prometheus.Histogram
	FAQChunksLoaded      prometheus.Gauge
	FAQVocabularySize    prometheus.Gauge
	BookingsCreatedTotal prometheus.Counter
	BookingsCancelled    prometheus.Counter
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
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
		FAQQuestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faq_questions_total",
				Help: "Total FAQ questions by outcome (answered, no_match, error).",
			},
			[]string{"outcome"},
		),
		FAQRetrievalLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faq_retrieval_latency_seconds",
				Help:    "FAQ retrieval latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		FAQConfidence: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "faq_answer_confidence",
				Help:    "Confidence (0-100) of synthesized FAQ answers.",
				Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
			},
		),
		FAQChunksLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "faq_chunks_loaded",
				Help: "Number of chunks currently in the vector store.",
			},
		),
		FAQVocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "faq_vocabulary_size",
				Help: "Number of distinct terms in the IDF table.",
			},
		),
		BookingsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bookings_created_total",
				Help: "Total bookings created.",
			},
		),
		BookingsCancelled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bookings_cancelled_total",
				Help: "Total bookings cancelled.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of answer cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of answer cache misses.",
			},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.FAQQuestionsTotal,
		m.FAQRetrievalLatency,
		m.FAQConfidence,
		m.FAQChunksLoaded,
		m.FAQVocabularySize,
		m.BookingsCreatedTotal,
		m.BookingsCancelled,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
