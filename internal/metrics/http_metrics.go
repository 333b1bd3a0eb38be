package metrics

import (
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTP metrics are managed by the MetricsManager singleton. These
// variables stay nil while business metrics are disabled.
var (
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	httpActiveConnections prometheus.Gauge
)

// initializeHTTPMetrics initializes HTTP metrics if they haven't been initialized yet
func initializeHTTPMetrics() {
	if httpRequestsTotal != nil {
		return // Already initialized
	}

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	httpActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	mm := GetInstance()
	mm.registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		httpActiveConnections,
	)
}

// RecordHTTPRequest records metrics for an HTTP request
func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if os.Getenv("ENABLE_BUSINESS_METRICS") != "true" {
		return
	}

	initializeHTTPMetrics()

	status := strconv.Itoa(statusCode)

	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// IncActiveConnections increments active connections
func IncActiveConnections() {
	if os.Getenv("ENABLE_BUSINESS_METRICS") != "true" {
		return
	}

	initializeHTTPMetrics()
	httpActiveConnections.Inc()
}

// DecActiveConnections decrements active connections
func DecActiveConnections() {
	if os.Getenv("ENABLE_BUSINESS_METRICS") != "true" {
		return
	}

	initializeHTTPMetrics()
	httpActiveConnections.Dec()
}
