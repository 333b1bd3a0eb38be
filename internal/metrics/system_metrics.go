package metrics

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MetricsManager is a singleton that manages all Prometheus metrics
type MetricsManager struct {
	// System metrics
	systemCPUUsage    *prometheus.GaugeVec
	systemMemoryUsage *prometheus.GaugeVec

	// Go runtime metrics
	goGoroutines    prometheus.Gauge
	goHeapAlloc     prometheus.Gauge
	goGCPauseNs     prometheus.Histogram
	goGCCPUFraction prometheus.Gauge

	// Registry for manual control
	registry *prometheus.Registry

	// Singleton control
	initialized bool
	mu          sync.RWMutex
}

var (
	instance *MetricsManager
	once     sync.Once
)

// GetInstance returns the singleton instance of MetricsManager
func GetInstance() *MetricsManager {
	once.Do(func() {
		instance = &MetricsManager{
			registry: prometheus.NewRegistry(),
		}
	})
	return instance
}

// InitializeMetrics initializes all system Prometheus metrics (thread-safe)
func (mm *MetricsManager) InitializeMetrics(service string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()

	if mm.initialized {
		return
	}

	constLabels := prometheus.Labels{"service": service}

	mm.systemCPUUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "system_cpu_usage_percent",
			Help:        "Current CPU usage percentage",
			ConstLabels: constLabels,
		},
		[]string{"core"},
	)

	mm.systemMemoryUsage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "system_memory_usage_bytes",
			Help:        "Current memory usage in bytes",
			ConstLabels: constLabels,
		},
		[]string{"type"},
	)

	mm.goGoroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "service_goroutines",
			Help:        "Number of goroutines that currently exist",
			ConstLabels: constLabels,
		},
	)

	mm.goHeapAlloc = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "service_heap_alloc_bytes",
			Help:        "Heap memory usage in bytes",
			ConstLabels: constLabels,
		},
	)

	mm.goGCPauseNs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:        "service_gc_pause_nanoseconds",
			Help:        "GC pause time in nanoseconds",
			Buckets:     prometheus.ExponentialBuckets(1000, 2, 20),
			ConstLabels: constLabels,
		},
	)

	mm.goGCCPUFraction = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name:        "service_gc_cpu_fraction",
			Help:        "Fraction of CPU time used by GC",
			ConstLabels: constLabels,
		},
	)

	mm.registry.MustRegister(
		mm.systemCPUUsage,
		mm.systemMemoryUsage,
		mm.goGoroutines,
		mm.goHeapAlloc,
		mm.goGCPauseNs,
		mm.goGCCPUFraction,
	)

	mm.initialized = true
}

// GetRegistry returns the Prometheus registry backing all service metrics
func GetRegistry() *prometheus.Registry {
	return GetInstance().registry
}

// StartSystemMetricsCollection starts collecting system metrics for the
// given service name (thread-safe, no-op when disabled)
func StartSystemMetricsCollection(service string) {
	if os.Getenv("ENABLE_SYSTEM_METRICS") != "true" {
		return
	}

	mm := GetInstance()
	mm.InitializeMetrics(service)

	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			mm.collectSystemMetrics()
			mm.collectGoRuntimeMetrics()
		}
	}()
}

// collectSystemMetrics collects system-level metrics
func (mm *MetricsManager) collectSystemMetrics() {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	if !mm.initialized {
		return
	}

	// CPU usage
	if cpuPercentages, err := cpu.Percent(0, true); err == nil {
		for i, percentage := range cpuPercentages {
			mm.systemCPUUsage.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(percentage)
		}
	}

	// Memory usage
	if vmstat, err := mem.VirtualMemory(); err == nil {
		mm.systemMemoryUsage.WithLabelValues("total").Set(float64(vmstat.Total))
		mm.systemMemoryUsage.WithLabelValues("available").Set(float64(vmstat.Available))
		mm.systemMemoryUsage.WithLabelValues("used").Set(float64(vmstat.Used))
	}
}

// collectGoRuntimeMetrics collects Go runtime metrics
func (mm *MetricsManager) collectGoRuntimeMetrics() {
	mm.mu.RLock()
	defer mm.mu.RUnlock()

	if !mm.initialized {
		return
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	mm.goGoroutines.Set(float64(runtime.NumGoroutine()))
	mm.goHeapAlloc.Set(float64(m.HeapAlloc))
	mm.goGCPauseNs.Observe(float64(m.PauseNs[(m.NumGC+255)%256]))
	mm.goGCCPUFraction.Set(m.GCCPUFraction)
}
