package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	recordsTotal         *prometheus.CounterVec
	storageFailuresTotal *prometheus.CounterVec
	reportCacheTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		recordsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "records_submitted_total",
			Help: "Record submissions by table and outcome.",
		}, []string{"table", "outcome"})

		storageFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "table_storage_failures_total",
			Help: "Failed writes of a whole table by table and policy.",
		}, []string{"table", "policy"})

		reportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "report_cache_lookups_total",
			Help: "Report cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, httpErrorsTotal, recordsTotal, storageFailuresTotal, reportCacheTotal)
	})
}

// MetricsHandler serves the Prometheus scrape endpoint.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// Records exposes the counter of record submissions.
func Records() *prometheus.CounterVec {
	RegisterMetrics()
	return recordsTotal
}

// StorageFailures exposes the counter of failed table writes.
func StorageFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return storageFailuresTotal
}

// ReportCache exposes the counter of report cache lookups.
func ReportCache() *prometheus.CounterVec {
	RegisterMetrics()
	return reportCacheTotal
}
