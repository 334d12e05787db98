// Package metrics provides Prometheus metrics for cutflow analysis jobs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics of a job.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Analysis metrics
	eventsRead     *prometheus.CounterVec
	eventsSelected *prometheus.CounterVec
	invalidWeights *prometheus.CounterVec
	cutflowSumW    *prometheus.GaugeVec
	cutflowCount   *prometheus.GaugeVec

	// Partition metrics
	partitionsPlanned   prometheus.Gauge
	partitionsProcessed prometheus.Counter
	partitionErrors     *prometheus.CounterVec
	partitionLatency    prometheus.Histogram

	// Repository metrics
	repositoryProcesses     prometheus.Gauge
	repositoryUpdateLatency prometheus.Histogram

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerActiveCount     prometheus.Gauge
	workerBusyCount       prometheus.Gauge
	workerEventsPerSecond prometheus.Gauge
	workerErrors          prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cutflow",
		subsystem:        "job",
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

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.metricPrefix + name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.eventsRead = auto.NewCounterVec(m.counterOpts("events_read_total",
		"Events read from the inputs"), []string{"process"})
	m.eventsSelected = auto.NewCounterVec(m.counterOpts("events_selected_total",
		"Events passing every selection stage"), []string{"process"})
	m.invalidWeights = auto.NewCounterVec(m.counterOpts("invalid_weights_total",
		"Events skipped because of a NaN, infinite or refused weight"), []string{"process"})
	m.cutflowSumW = auto.NewGaugeVec(m.gaugeOpts("cutflow_weighted",
		"Merged weighted event count per selection stage"), []string{"process", "stage"})
	m.cutflowCount = auto.NewGaugeVec(m.gaugeOpts("cutflow_events",
		"Merged raw event count per selection stage"), []string{"process", "stage"})

	m.partitionsPlanned = auto.NewGauge(m.gaugeOpts("partitions_planned",
		"Partitions planned for the job"))
	m.partitionsProcessed = auto.NewCounter(m.counterOpts("partitions_processed_total",
		"Partitions processed and merged"))
	m.partitionErrors = auto.NewCounterVec(m.counterOpts("partition_errors_total",
		"Partitions that failed, by reason"), []string{"reason"})
	m.partitionLatency = auto.NewHistogram(m.histogramOpts("partition_duration_milliseconds",
		"Time to process one partition in milliseconds",
		[]float64{10, 50, 100, 500, 1000, 5000, 10000, 30000, 60000, 300000}))

	m.repositoryProcesses = auto.NewGauge(m.gaugeOpts("repository_processes",
		"Processes with merged results"))
	m.repositoryUpdateLatency = auto.NewHistogram(m.histogramOpts("repository_update_latency_milliseconds",
		"Time to merge one partition result in milliseconds", m.histogramBuckets))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size",
		"Partitions waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity",
		"Maximum partitions the queue holds"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio",
		"Queue size over capacity"))
	m.queueEnqueueTotal = auto.NewCounter(m.counterOpts("queue_enqueue_total",
		"Partitions enqueued"))
	m.queueDequeueTotal = auto.NewCounter(m.counterOpts("queue_dequeue_total",
		"Partitions dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total",
		"Refused enqueues"))

	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count",
		"Workers in the pool"))
	m.workerBusyCount = auto.NewGauge(m.gaugeOpts("worker_busy_count",
		"Workers currently processing a partition"))
	m.workerEventsPerSecond = auto.NewGauge(m.gaugeOpts("worker_events_per_second",
		"Events processed per second over the last refresh interval"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total",
		"Worker errors"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds", m.histogramBuckets), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes",
		"System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count",
		"Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts("system_gc_pause_time_milliseconds",
		"GC pause time in milliseconds", []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Enabled reports whether recording is on.
func (m *Manager) Enabled() bool { return m.enabled }

// RefreshInterval is how often sampled gauges are refreshed.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// Analysis Metrics Functions.

// RecordEventsRead adds n events read for process.
func (m *Manager) RecordEventsRead(process string, n int64) {
	if m.enabled {
		m.eventsRead.WithLabelValues(process).Add(float64(n))
	}
}

// RecordEventsSelected adds n selected events for process.
func (m *Manager) RecordEventsSelected(process string, n int64) {
	if m.enabled {
		m.eventsSelected.WithLabelValues(process).Add(float64(n))
	}
}

// RecordInvalidWeight counts one skipped event of process.
func (m *Manager) RecordInvalidWeight(process string) {
	if m.enabled {
		m.invalidWeights.WithLabelValues(process).Inc()
	}
}

// UpdateCutflowStage sets the merged totals of one stage.
func (m *Manager) UpdateCutflowStage(process, stage string, sumW float64, count int64) {
	if m.enabled {
		m.cutflowSumW.WithLabelValues(process, stage).Set(sumW)
		m.cutflowCount.WithLabelValues(process, stage).Set(float64(count))
	}
}

// RecordEventsRead adds n events read for process.
func RecordEventsRead(process string, n int64) { globalManager.RecordEventsRead(process, n) }

// RecordEventsSelected adds n selected events for process.
func RecordEventsSelected(process string, n int64) { globalManager.RecordEventsSelected(process, n) }

// RecordInvalidWeight counts one skipped event of process.
func RecordInvalidWeight(process string) { globalManager.RecordInvalidWeight(process) }

// UpdateCutflowStage sets the merged totals of one stage.
func UpdateCutflowStage(process, stage string, sumW float64, count int64) {
	globalManager.UpdateCutflowStage(process, stage, sumW, count)
}

// Partition Metrics Functions.

// UpdatePartitionsPlanned sets the number of planned partitions.
func UpdatePartitionsPlanned(n int) {
	globalManager.partitionsPlanned.Set(float64(n))
}

// RecordPartitionProcessed counts one merged partition and its latency.
func RecordPartitionProcessed(latencyMs float64) {
	globalManager.partitionsProcessed.Inc()
	globalManager.partitionLatency.Observe(latencyMs)
}

// RecordPartitionError counts one failed partition.
func RecordPartitionError(reason string) {
	globalManager.partitionErrors.WithLabelValues(reason).Inc()
}

// Repository Metrics Functions.

// UpdateRepositoryProcesses sets the number of processes with results.
func UpdateRepositoryProcesses(count int) {
	globalManager.repositoryProcesses.Set(float64(count))
}

// RecordRepositoryUpdateLatency records repository merge latency.
func RecordRepositoryUpdateLatency(latencyMs float64) {
	globalManager.repositoryUpdateLatency.Observe(latencyMs)
}

// Queue Metrics Functions.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// IncWorkerBusy marks one more worker busy.
func IncWorkerBusy() { globalManager.workerBusyCount.Inc() }

// DecWorkerBusy marks one worker idle again.
func DecWorkerBusy() { globalManager.workerBusyCount.Dec() }

// UpdateWorkerEventsPerSecond sets the recent event rate.
func UpdateWorkerEventsPerSecond(rate float64) {
	globalManager.workerEventsPerSecond.Set(rate)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
