// Package metrics provides Prometheus-based metrics collection for veriscan.
// It uses the standard Prometheus client library so scan, probe, and
// reference-comparison activity can be scraped through the status server's
// /metrics endpoint.
package metrics

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// Namespace for all veriscan metrics
	namespace = "veriscan"

	// Subsystems
	subsystemScan      = "scan"
	subsystemProbe     = "probe"
	subsystemReference = "reference"
	subsystemHTTP      = "http"
	subsystemSystem    = "system"
)

// PrometheusMetrics holds all Prometheus metric collectors
type PrometheusMetrics struct {
	// Scan metrics
	scansTotal   *prometheus.CounterVec
	scanDuration *prometheus.HistogramVec
	openPorts    *prometheus.GaugeVec
	activeScans  prometheus.Gauge

	// Probe metrics
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	portsQueued   prometheus.Gauge

	// Reference metrics
	referenceRuns     *prometheus.CounterVec
	referenceDuration prometheus.Histogram
	lastAccuracy      prometheus.Gauge

	// HTTP metrics (status server)
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// System metrics
	memoryUsage prometheus.Gauge
	goroutines  prometheus.Gauge
	uptime      prometheus.Gauge

	// Performance tracking
	startTime  time.Time
	lastUpdate time.Time
	mu         sync.RWMutex
	registry   *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance with all collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	pm := &PrometheusMetrics{
		startTime: time.Now(),
		registry:  registry,
	}

	pm.initScanMetrics()
	pm.initProbeMetrics()
	pm.initReferenceMetrics()
	pm.initHTTPMetrics()
	pm.initSystemMetrics()

	pm.registerMetrics()

	// Register standard Go and process collectors for runtime visibility
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return pm
}

// initScanMetrics initializes scan-related metrics
func (pm *PrometheusMetrics) initScanMetrics() {
	pm.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "total",
			Help:      "Total number of scans performed by outcome",
		},
		[]string{"outcome"},
	)

	pm.scanDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "duration_seconds",
			Help:      "Duration of whole-scan operations in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0},
		},
		[]string{"outcome"},
	)

	pm.openPorts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "open_ports",
			Help:      "Open ports found by the most recent scan per target",
		},
		[]string{"target"},
	)

	pm.activeScans = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "active",
			Help:      "Number of currently active scans",
		},
	)
}

// initProbeMetrics initializes per-probe metrics
func (pm *PrometheusMetrics) initProbeMetrics() {
	pm.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "total",
			Help:      "Total number of port probes by result status",
		},
		[]string{"status"},
	)

	pm.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "duration_seconds",
			Help:      "Duration of individual connect probes in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		},
		[]string{"status"},
	)

	pm.inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "in_flight",
			Help:      "Number of probes currently in flight",
		},
	)

	pm.portsQueued = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "ports_queued",
			Help:      "Number of ports queued for the current scan",
		},
	)
}

// initReferenceMetrics initializes reference-scanner metrics
func (pm *PrometheusMetrics) initReferenceMetrics() {
	pm.referenceRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemReference,
			Name:      "runs_total",
			Help:      "Total number of reference scanner runs by status",
		},
		[]string{"status"},
	)

	pm.referenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemReference,
			Name:      "duration_seconds",
			Help:      "Duration of reference scanner runs in seconds",
			Buckets:   []float64{0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0},
		},
	)

	pm.lastAccuracy = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemReference,
			Name:      "last_accuracy_ratio",
			Help:      "Accuracy ratio of the most recent reference comparison",
		},
	)
}

// initHTTPMetrics initializes status-server metrics
func (pm *PrometheusMetrics) initHTTPMetrics() {
	pm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemHTTP,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	pm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemHTTP,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"method", "path"},
	)
}

// initSystemMetrics initializes system-related metrics
func (pm *PrometheusMetrics) initSystemMetrics() {
	pm.memoryUsage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "memory_bytes",
			Help:      "Current memory usage in bytes",
		},
	)

	pm.goroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	pm.uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "uptime_seconds",
			Help:      "Application uptime in seconds",
		},
	)
}

// registerMetrics registers all metrics with the Prometheus registry
func (pm *PrometheusMetrics) registerMetrics() {
	// Scan metrics
	pm.registry.MustRegister(pm.scansTotal)
	pm.registry.MustRegister(pm.scanDuration)
	pm.registry.MustRegister(pm.openPorts)
	pm.registry.MustRegister(pm.activeScans)

	// Probe metrics
	pm.registry.MustRegister(pm.probesTotal)
	pm.registry.MustRegister(pm.probeDuration)
	pm.registry.MustRegister(pm.inFlight)
	pm.registry.MustRegister(pm.portsQueued)

	// Reference metrics
	pm.registry.MustRegister(pm.referenceRuns)
	pm.registry.MustRegister(pm.referenceDuration)
	pm.registry.MustRegister(pm.lastAccuracy)

	// HTTP metrics
	pm.registry.MustRegister(pm.httpRequests)
	pm.registry.MustRegister(pm.httpDuration)

	// System metrics
	pm.registry.MustRegister(pm.memoryUsage)
	pm.registry.MustRegister(pm.goroutines)
	pm.registry.MustRegister(pm.uptime)
}

// GetRegistry returns the Prometheus registry for HTTP handler
func (pm *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return pm.registry
}

// Scan Metrics Methods

// IncrementScansTotal increments the total scan counter
func (pm *PrometheusMetrics) IncrementScansTotal(outcome string) {
	pm.scansTotal.WithLabelValues(outcome).Inc()
}

// RecordScanDuration records a whole-scan duration
func (pm *PrometheusMetrics) RecordScanDuration(outcome string, duration time.Duration) {
	pm.scanDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// SetOpenPorts records the open-port count of the most recent scan of a target
func (pm *PrometheusMetrics) SetOpenPorts(target string, count int) {
	pm.openPorts.WithLabelValues(target).Set(float64(count))
}

// SetActiveScans sets the number of active scans
func (pm *PrometheusMetrics) SetActiveScans(count int) {
	pm.activeScans.Set(float64(count))
}

// Probe Metrics Methods

// IncrementProbesTotal increments the probe counter for a result status
func (pm *PrometheusMetrics) IncrementProbesTotal(status string) {
	pm.probesTotal.WithLabelValues(status).Inc()
}

// RecordProbeDuration records a single probe duration
func (pm *PrometheusMetrics) RecordProbeDuration(status string, duration time.Duration) {
	pm.probeDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// IncrementInFlightProbes increments the in-flight probe gauge
func (pm *PrometheusMetrics) IncrementInFlightProbes() {
	pm.inFlight.Inc()
}

// DecrementInFlightProbes decrements the in-flight probe gauge
func (pm *PrometheusMetrics) DecrementInFlightProbes() {
	pm.inFlight.Dec()
}

// SetPortsQueued sets the number of ports queued for the current scan
func (pm *PrometheusMetrics) SetPortsQueued(count int) {
	pm.portsQueued.Set(float64(count))
}

// Reference Metrics Methods

// IncrementReferenceRuns increments the reference run counter
func (pm *PrometheusMetrics) IncrementReferenceRuns(status string) {
	pm.referenceRuns.WithLabelValues(status).Inc()
}

// RecordReferenceDuration records a reference scanner run duration
func (pm *PrometheusMetrics) RecordReferenceDuration(duration time.Duration) {
	pm.referenceDuration.Observe(duration.Seconds())
}

// SetLastAccuracy records the accuracy of the most recent comparison
func (pm *PrometheusMetrics) SetLastAccuracy(accuracy float64) {
	pm.lastAccuracy.Set(accuracy)
}

// HTTP Metrics Methods

// IncrementHTTPRequests increments HTTP request counter
func (pm *PrometheusMetrics) IncrementHTTPRequests(method, path, status string) {
	pm.httpRequests.WithLabelValues(method, path, status).Inc()
}

// RecordHTTPDuration records HTTP request duration
func (pm *PrometheusMetrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	pm.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// System Metrics Methods

// UpdateSystemMetrics updates all system metrics with current values
func (pm *PrometheusMetrics) UpdateSystemMetrics() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	pm.memoryUsage.Set(float64(memStats.Alloc))
	pm.goroutines.Set(float64(runtime.NumGoroutine()))
	pm.uptime.Set(time.Since(pm.startTime).Seconds())

	pm.lastUpdate = time.Now()
}

// Utility Methods

// GetUptime returns the application uptime
func (pm *PrometheusMetrics) GetUptime() time.Duration {
	return time.Since(pm.startTime)
}

// GetLastUpdate returns the last metrics update time
func (pm *PrometheusMetrics) GetLastUpdate() time.Time {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.lastUpdate
}

// StartPeriodicUpdates starts a goroutine that periodically updates system metrics
func (pm *PrometheusMetrics) StartPeriodicUpdates(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Update immediately
	pm.UpdateSystemMetrics()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pm.UpdateSystemMetrics()
		}
	}
}

// Global instance for easy access
var globalMetrics *PrometheusMetrics
var metricsOnce sync.Once

// GetGlobalMetrics returns the global Prometheus metrics instance
func GetGlobalMetrics() *PrometheusMetrics {
	metricsOnce.Do(func() {
		globalMetrics = NewPrometheusMetrics()
	})
	return globalMetrics
}

// Convenience functions using global instance

// RecordProbe records outcome and duration of a single probe using global metrics
func RecordProbe(status string, duration time.Duration) {
	m := GetGlobalMetrics()
	m.IncrementProbesTotal(status)
	m.RecordProbeDuration(status, duration)
}

// RecordScan records outcome and duration of a whole scan using global metrics
func RecordScan(outcome string, duration time.Duration) {
	m := GetGlobalMetrics()
	m.IncrementScansTotal(outcome)
	m.RecordScanDuration(outcome, duration)
}

// RecordReferenceRun records a reference scanner run using global metrics
func RecordReferenceRun(status string, duration time.Duration) {
	m := GetGlobalMetrics()
	m.IncrementReferenceRuns(status)
	m.RecordReferenceDuration(duration)
}

// RecordAccuracy records the most recent comparison accuracy using global metrics
func RecordAccuracy(accuracy float64) {
	GetGlobalMetrics().SetLastAccuracy(accuracy)
}
