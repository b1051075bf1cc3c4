// Package metrics exposes Prometheus collectors for the pipeline service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapesTotal               *prometheus.CounterVec
	enrichmentsTotal           *prometheus.CounterVec
	archiveFailuresTotal       prometheus.Counter
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtrack_scrapes_total",
				Help: "Total number of scrape flows, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		enrichmentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtrack_enrichments_total",
				Help: "Total number of enrich flows, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		archiveFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "jobtrack_archive_failures_total",
				Help: "Total artifact archive failures degraded to an empty URL.",
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape increments the scrape counter for the given outcome.
func ObserveScrape(outcome string) {
	scrapesTotal.WithLabelValues(outcome).Inc()
}

// ObserveEnrichment increments the enrichment counter for the given outcome.
func ObserveEnrichment(outcome string) {
	enrichmentsTotal.WithLabelValues(outcome).Inc()
}

// ObserveArchiveFailure counts an archive step that degraded to an
// empty artifact URL.
func ObserveArchiveFailure() {
	archiveFailuresTotal.Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
