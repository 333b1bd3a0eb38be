package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingest, cache and realtime metrics are managed by the MetricsManager
// singleton. These variables stay nil while business metrics are disabled.
var (
	ingestEventsTotal        *prometheus.CounterVec
	ingestEventsDropped      *prometheus.CounterVec
	cacheSessionsRegistered  prometheus.Gauge
	cacheSamplesDropped      *prometheus.CounterVec
	realtimeSnapshotsPushed  prometheus.Counter
	realtimeSessionsActive   prometheus.Gauge
	realtimeSessionsFinished *prometheus.CounterVec
)

// initializeTelemetryMetrics initializes telemetry metrics if they haven't
// been initialized yet
func initializeTelemetryMetrics() {
	if ingestEventsTotal != nil {
		return // Already initialized
	}

	ingestEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_total",
			Help: "Total number of telemetry events processed by the ingest loop",
		},
		[]string{"parameter"},
	)

	ingestEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_events_dropped_total",
			Help: "Total number of telemetry events dropped by the ingest loop",
		},
		[]string{"reason"},
	)

	cacheSessionsRegistered = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_sessions_registered",
			Help: "Number of viewer sessions registered in the telemetry cache",
		},
	)

	cacheSamplesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_samples_dropped_total",
			Help: "Total number of waveform samples dropped on queue overflow",
		},
		[]string{"kind"},
	)

	realtimeSnapshotsPushed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_snapshots_pushed_total",
			Help: "Total number of snapshots pushed to realtime viewers",
		},
	)

	realtimeSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "realtime_sessions_active",
			Help: "Number of currently connected realtime viewer sessions",
		},
	)

	realtimeSessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_sessions_finished_total",
			Help: "Total number of realtime viewer sessions that have ended",
		},
		[]string{"cause"}, // "client_gone", "cancelled"
	)

	mm := GetInstance()
	mm.registry.MustRegister(
		ingestEventsTotal,
		ingestEventsDropped,
		cacheSessionsRegistered,
		cacheSamplesDropped,
		realtimeSnapshotsPushed,
		realtimeSessionsActive,
		realtimeSessionsFinished,
	)
}

func businessMetricsEnabled() bool {
	return os.Getenv("ENABLE_BUSINESS_METRICS") == "true"
}

// RecordIngestEvent records one successfully routed telemetry event
func RecordIngestEvent(parameter string) {
	if !businessMetricsEnabled() {
		return
	}
	initializeTelemetryMetrics()
	ingestEventsTotal.WithLabelValues(parameter).Inc()
}

// RecordDroppedEvent records one event dropped by the ingest loop
func RecordDroppedEvent(reason string) {
	if !businessMetricsEnabled() {
		return
	}
	initializeTelemetryMetrics()
	ingestEventsDropped.WithLabelValues(reason).Inc()
}

// IncRegisteredSessions increments the registered cache sessions gauge
func IncRegisteredSessions() {
	if !businessMetricsEnabled() {
		return
	}
	initializeTelemetryMetrics()
	cacheSessionsRegistered.Inc()
}

// DecRegisteredSessions decrements the registered cache sessions gauge
func DecRegisteredSessions() {
	if !businessMetricsEnabled() {
		return
	}
	initializeTelemetryMetrics()
	cacheSessionsRegistered.Dec()
}

// RecordDroppedSamples records waveform samples dropped on queue overflow
func RecordDroppedSamples(kind string, count int) {
	if !businessMetricsEnabled() {
		return
	}
	initializeTelemetryMetrics()
	cacheSamplesDropped.WithLabelValues(kind).Add(float64(count))
}

// RecordSnapshotPush records one snapshot delivered to a viewer
func RecordSnapshotPush() {
	if !businessMetricsEnabled() {
		return
	}
	initializeTelemetryMetrics()
	realtimeSnapshotsPushed.Inc()
}

// IncRealtimeSessions increments the active viewer sessions gauge
func IncRealtimeSessions() {
	if !businessMetricsEnabled() {
		return
	}
	initializeTelemetryMetrics()
	realtimeSessionsActive.Inc()
}

// DecRealtimeSessions decrements the active viewer sessions gauge and
// records why the session ended
func DecRealtimeSessions(cause string) {
	if !businessMetricsEnabled() {
		return
	}
	initializeTelemetryMetrics()
	realtimeSessionsActive.Dec()
	realtimeSessionsFinished.WithLabelValues(cause).Inc()
}
