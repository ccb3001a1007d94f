// Package metrics provides Prometheus metrics for the crewrate service.
package metrics

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Rating domain
	ratingsSubmitted *prometheus.CounterVec
	ratingsRejected  *prometheus.CounterVec
	ratingScores     prometheus.Histogram
	workersCreated   prometheus.Counter
	profileResets    prometheus.Counter
	settingsUpdates  *prometheus.CounterVec

	// Inventory gauges, refreshed periodically
	workersTotal     prometheus.Gauge
	ratingsTotal     prometheus.Gauge
	profilesByStatus *prometheus.GaugeVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec

	// Storage
	storeLatency   *prometheus.HistogramVec
	storeErrors    *prometheus.CounterVec
	snapshotWrites prometheus.Counter
	configReloads  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager atomic.Pointer[Manager] //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry atomic.Pointer[prometheus.Registry] //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	Configure()
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crewrate",
		subsystem:        "ratings",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// RefreshInterval is how often periodic gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Enabled reports whether updates are recorded.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.ratingsSubmitted = auto.NewCounterVec(
		m.counterOpts("submitted_total", "Ratings accepted, by category"),
		[]string{"category"},
	)
	m.ratingsRejected = auto.NewCounterVec(
		m.counterOpts("rejected_total", "Ratings rejected, by reason"),
		[]string{"reason"},
	)
	m.ratingScores = auto.NewHistogram(
		m.histogramOpts("score", "Distribution of accepted rating scores",
			[]float64{1, 1.5, 2, 2.5, 3, 3.5, 4, 4.2, 4.5, 5}),
	)
	m.workersCreated = auto.NewCounter(
		m.counterOpts("workers_created_total", "Workers created"),
	)
	m.profileResets = auto.NewCounter(
		m.counterOpts("resets_total", "Bulk profile resets"),
	)
	m.settingsUpdates = auto.NewCounterVec(
		m.counterOpts("settings_updates_total", "Live settings changes, by source"),
		[]string{"source"},
	)

	m.workersTotal = auto.NewGauge(m.gaugeOpts("workers", "Workers in the store"))
	m.ratingsTotal = auto.NewGauge(m.gaugeOpts("ratings", "Ratings in the store"))
	m.profilesByStatus = auto.NewGaugeVec(
		m.gaugeOpts("profiles_by_status", "Profiles per overall status"),
		[]string{"status"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Store operation latency in milliseconds", m.histogramBuckets),
		[]string{"operation"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Failed store operations"),
		[]string{"operation"},
	)
	m.snapshotWrites = auto.NewCounter(
		m.counterOpts("snapshot_writes_total", "Local snapshot file rewrites"),
	)
	m.configReloads = auto.NewCounterVec(
		m.counterOpts("config_reloads_total", "Config file reloads, by result"),
		[]string{"result"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// RecordRatingSubmitted counts an accepted rating and observes its score.
func (m *Manager) RecordRatingSubmitted(category string, score float64) {
	if !m.enabled {
		return
	}
	m.ratingsSubmitted.WithLabelValues(category).Inc()
	m.ratingScores.Observe(score)
}

// RecordRatingRejected counts a rejected rating.
func (m *Manager) RecordRatingRejected(reason string) {
	if m.enabled {
		m.ratingsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordWorkerCreated counts a new worker.
func (m *Manager) RecordWorkerCreated() {
	if m.enabled {
		m.workersCreated.Inc()
	}
}

// RecordProfilesReset counts a bulk reset.
func (m *Manager) RecordProfilesReset() {
	if m.enabled {
		m.profileResets.Inc()
	}
}

// RecordSettingsUpdate counts a settings change from source (api, config).
func (m *Manager) RecordSettingsUpdate(source string) {
	if m.enabled {
		m.settingsUpdates.WithLabelValues(source).Inc()
	}
}

// UpdateInventory sets the worker and rating gauges.
func (m *Manager) UpdateInventory(workers, ratings int64) {
	if !m.enabled {
		return
	}
	m.workersTotal.Set(float64(workers))
	m.ratingsTotal.Set(float64(ratings))
}

// UpdateProfilesByStatus replaces the per-status profile gauges.
func (m *Manager) UpdateProfilesByStatus(counts map[string]int) {
	if !m.enabled {
		return
	}
	m.profilesByStatus.Reset()
	for status, n := range counts {
		m.profilesByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// RecordHTTPRequest records one request and its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordStoreOperation observes a store call and counts it as failed when err is set.
func (m *Manager) RecordStoreOperation(operation string, latencyMs float64, err error) {
	if !m.enabled {
		return
	}
	m.storeLatency.WithLabelValues(operation).Observe(latencyMs)
	if err != nil {
		m.storeErrors.WithLabelValues(operation).Inc()
	}
}

// RecordSnapshotWrite counts a snapshot file rewrite.
func (m *Manager) RecordSnapshotWrite() {
	if m.enabled {
		m.snapshotWrites.Inc()
	}
}

// RecordConfigReload counts a config reload attempt with result ok or error.
func (m *Manager) RecordConfigReload(result string) {
	if m.enabled {
		m.configReloads.WithLabelValues(result).Inc()
	}
}

// UpdateSystemStats sets memory and goroutine gauges.
func (m *Manager) UpdateSystemStats(heapBytes uint64, goroutines int) {
	if !m.enabled {
		return
	}
	m.systemMemoryUsage.Set(float64(heapBytes))
	m.systemGoroutineCount.Set(float64(goroutines))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if m.enabled {
		m.systemGCPauseTime.Observe(pauseMs)
	}
}

// Package-level helpers backed by the global manager.

// Default returns the global manager.
func Default() *Manager { return globalManager.Load() }

// Configure replaces the global manager with one built from opts on a fresh
// registry and returns it. Handlers built from GetRegistry before the call
// keep serving the previous registry.
func Configure(opts ...Option) *Manager {
	reg := prometheus.NewRegistry()
	m := NewManager(append(slices.Clip(opts), WithPrometheusRegistry(reg))...)
	customRegistry.Store(reg)
	globalManager.Store(m)
	return m
}

// RecordRatingSubmitted counts an accepted rating on the global manager.
func RecordRatingSubmitted(category string, score float64) {
	globalManager.Load().RecordRatingSubmitted(category, score)
}

// RecordRatingRejected counts a rejected rating on the global manager.
func RecordRatingRejected(reason string) { globalManager.Load().RecordRatingRejected(reason) }

// RecordWorkerCreated counts a new worker on the global manager.
func RecordWorkerCreated() { globalManager.Load().RecordWorkerCreated() }

// RecordProfilesReset counts a bulk reset on the global manager.
func RecordProfilesReset() { globalManager.Load().RecordProfilesReset() }

// RecordSettingsUpdate counts a settings change on the global manager.
func RecordSettingsUpdate(source string) { globalManager.Load().RecordSettingsUpdate(source) }

// UpdateInventory sets inventory gauges on the global manager.
func UpdateInventory(workers, ratings int64) { globalManager.Load().UpdateInventory(workers, ratings) }

// UpdateProfilesByStatus sets status gauges on the global manager.
func UpdateProfilesByStatus(counts map[string]int) { globalManager.Load().UpdateProfilesByStatus(counts) }

// RecordHTTPRequest records an HTTP request on the global manager.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.Load().RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint records an endpoint error on the global manager.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.Load().RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordStoreOperation observes a store call on the global manager.
func RecordStoreOperation(operation string, latencyMs float64, err error) {
	globalManager.Load().RecordStoreOperation(operation, latencyMs, err)
}

// RecordSnapshotWrite counts a snapshot rewrite on the global manager.
func RecordSnapshotWrite() { globalManager.Load().RecordSnapshotWrite() }

// RecordConfigReload counts a config reload on the global manager.
func RecordConfigReload(result string) { globalManager.Load().RecordConfigReload(result) }

// UpdateSystemStats sets system gauges on the global manager.
func UpdateSystemStats(heapBytes uint64, goroutines int) {
	globalManager.Load().UpdateSystemStats(heapBytes, goroutines)
}

// RecordSystemGCPauseTime records a GC pause on the global manager.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.Load().RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry.Load()
}
