package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics of the ingestion engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ingestion
	competitions     *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	entitiesUpserted *prometheus.CounterVec
	rowsSkipped      *prometheus.CounterVec
	warnings         *prometheus.CounterVec
	lastRunUnix      prometheus.Gauge

	// Store
	storeCallDuration *prometheus.HistogramVec
	storeErrors       *prometheus.CounterVec

	// Queue and workers
	queueDepth    prometheus.Gauge
	workersActive prometheus.Gauge
	jobDuration   prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager registered on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ksis",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() {
	m.competitions = m.counterVec("competitions_total",
		"Competitions ingested by outcome (done, failed, deferred)", "outcome")
	m.stageDuration = m.histogramVec("stage_duration_seconds",
		"Time spent in each ingestion stage", "stage")
	m.entitiesUpserted = m.counterVec("entities_upserted_total",
		"Entities upserted by kind", "kind")
	m.rowsSkipped = m.counterVec("rows_skipped_total",
		"Rows skipped during ingestion by reason", "reason")
	m.warnings = m.counterVec("warnings_total",
		"Recoverable ingestion warnings by kind", "kind")
	m.lastRunUnix = m.gauge("last_run_timestamp_seconds",
		"Unix time of the last completed ingestion run")

	m.storeCallDuration = m.histogramVec("store_call_duration_seconds",
		"Store call latency by operation", "op")
	m.storeErrors = m.counterVec("store_errors_total",
		"Failed store calls by operation", "op")

	m.queueDepth = m.gauge("jobs_queue_depth", "Competition jobs waiting in the queue")
	m.workersActive = m.gauge("workers_active", "Workers currently ingesting a competition")
	m.jobDuration = promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "job_duration_seconds",
		Help:        "Time to ingest one competition job",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.httpRequests = m.counterVec("http_requests_total",
		"HTTP requests by endpoint, method and status", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_seconds",
		"HTTP request duration by endpoint and method", "endpoint", "method", "status_code")
}

// RecordCompetition counts one competition outcome.
func RecordCompetition(outcome string) {
	globalManager.competitions.WithLabelValues(outcome).Inc()
}

// RecordStageDuration observes how long a stage took.
func RecordStageDuration(stage string, d time.Duration) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordEntityUpserted counts one upsert of kind.
func RecordEntityUpserted(kind string) {
	globalManager.entitiesUpserted.WithLabelValues(kind).Inc()
}

// RecordRowSkipped counts one skipped row.
func RecordRowSkipped(reason string) {
	globalManager.rowsSkipped.WithLabelValues(reason).Inc()
}

// RecordWarning counts one recoverable warning.
func RecordWarning(kind string) {
	globalManager.warnings.WithLabelValues(kind).Inc()
}

// UpdateLastRun stamps the end of an ingestion run.
func UpdateLastRun(t time.Time) {
	globalManager.lastRunUnix.Set(float64(t.Unix()))
}

// RecordStoreCall observes a store call and counts it as failed when err is non-nil.
func RecordStoreCall(op string, d time.Duration, err error) {
	globalManager.storeCallDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		globalManager.storeErrors.WithLabelValues(op).Inc()
	}
}

// UpdateQueueDepth sets the current queue depth.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// AddWorkersActive moves the active worker gauge by delta.
func AddWorkersActive(delta int) {
	globalManager.workersActive.Add(float64(delta))
}

// RecordJobDuration observes one competition job.
func RecordJobDuration(d time.Duration) {
	globalManager.jobDuration.Observe(d.Seconds())
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, d time.Duration) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(d.Seconds())
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
