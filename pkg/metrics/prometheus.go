// Package metrics provides Prometheus metrics for the hltjet service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the hltjet service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer
	auto             promauto.Factory

	// Event flow
	eventsProcessed prometheus.Counter
	eventsDuplicate prometheus.Counter
	eventsFailed    *prometheus.CounterVec
	producerLatency *prometheus.HistogramVec

	// Jet timing
	jetsTimed     prometheus.Counter
	jetsUntimed   prometheus.Counter
	cellsAccepted prometheus.Counter
	cellsRejected *prometheus.CounterVec

	// Di-tau cross cleaning
	dijetPairs prometheus.Counter
	jetsKept   prometheus.Counter
	jetsInput  prometheus.Counter

	// Geometry and products
	geometryCacheHits   prometheus.Gauge
	geometryCacheMisses prometheus.Gauge
	geometryCacheSize   prometheus.Gauge
	productsStored      prometheus.Gauge

	// Queue
	queueSize              prometheus.Gauge
	queueCapacity          prometheus.Gauge
	queueUtilization       prometheus.Gauge
	queueEnqueue           prometheus.Counter
	queueDequeue           prometheus.Counter
	queueEnqueueErrors     prometheus.Counter
	queueProcessingLatency prometheus.Histogram

	// Workers
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerIdleCount         prometheus.Gauge
	workerMessagesPerSecond prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
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

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "hltjet",
		subsystem:        "producers",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.auto = promauto.With(m.registry)
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return m.auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return m.auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return m.auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return m.auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return m.auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	m.eventsProcessed = m.counter("events_processed_total", "Total number of events run through every producer")
	m.eventsDuplicate = m.counter("events_duplicate_total", "Total number of resubmitted events that were ignored")
	m.eventsFailed = m.counterVec("events_failed_total", "Total number of events a producer failed on", "producer")
	m.producerLatency = m.histogramVec("producer_latency_milliseconds", "Per-event producer latency in milliseconds", "producer")

	m.jetsTimed = m.counter("jets_timed_total", "Total number of jets with at least one accepted cell")
	m.jetsUntimed = m.counter("jets_untimed_total", "Total number of jets that received the sentinel time")
	m.cellsAccepted = m.counter("cells_accepted_total", "Total number of ECAL cells used in a jet time")
	m.cellsRejected = m.counterVec("cells_rejected_total", "Total number of ECAL cells rejected, by reason", "reason")

	m.dijetPairs = m.counter("ditau_dijet_pairs_total", "Total number of jet pairs that found a compatible tau pair")
	m.jetsKept = m.counter("ditau_jets_kept_total", "Total number of jets kept by the di-tau filter")
	m.jetsInput = m.counter("ditau_jets_input_total", "Total number of jets seen by the di-tau filter")

	m.geometryCacheHits = m.gauge("geometry_cache_hits", "Geometry cache hits since start")
	m.geometryCacheMisses = m.gauge("geometry_cache_misses", "Geometry cache misses since start")
	m.geometryCacheSize = m.gauge("geometry_cache_entries", "Number of cell positions held in the geometry cache")
	m.productsStored = m.gauge("products_stored", "Number of event products currently retained")

	m.queueSize = m.gauge("queue_size", "Current size of the event queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueue = m.counter("queue_enqueue_total", "Total number of events enqueued")
	m.queueDequeue = m.counter("queue_dequeue_total", "Total number of events dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Total number of rejected enqueues")
	m.queueProcessingLatency = m.histogram("queue_processing_latency_milliseconds", "Enqueue latency in milliseconds", m.histogramBuckets)

	m.workerCount = m.gauge("worker_count", "Number of configured workers")
	m.workerActiveCount = m.gauge("worker_active_count", "Number of workers currently processing an event")
	m.workerIdleCount = m.gauge("worker_idle_count", "Number of workers waiting for an event")
	m.workerMessagesPerSecond = m.gauge("worker_messages_per_second", "Events processed per second across the pool")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "End to end event latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker errors")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorsByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorsByType = m.counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorsByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap memory in use in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordEventProcessed increments the events processed counter.
func RecordEventProcessed() {
	globalManager.eventsProcessed.Inc()
}

// RecordEventDuplicate increments the duplicate events counter.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordEventFailed counts an event a producer could not handle.
func RecordEventFailed(producer string) {
	globalManager.eventsFailed.WithLabelValues(producer).Inc()
}

// RecordProducerLatency records one producer call in milliseconds.
func RecordProducerLatency(producer string, latencyMs float64) {
	globalManager.producerLatency.WithLabelValues(producer).Observe(latencyMs)
}

// RecordJetTimes records the outcome of one timing pass.
func RecordJetTimes(timed, untimed int) {
	globalManager.jetsTimed.Add(float64(timed))
	globalManager.jetsUntimed.Add(float64(untimed))
}

// RecordCellsAccepted adds n accepted cells.
func RecordCellsAccepted(n uint64) {
	globalManager.cellsAccepted.Add(float64(n))
}

// RecordCellsRejected adds n cells rejected for reason.
func RecordCellsRejected(reason string, n uint64) {
	if n == 0 {
		return
	}
	globalManager.cellsRejected.WithLabelValues(reason).Add(float64(n))
}

// RecordDiTau records the outcome of one di-tau filter pass.
func RecordDiTau(input, pairs, kept int) {
	globalManager.jetsInput.Add(float64(input))
	globalManager.dijetPairs.Add(float64(pairs))
	globalManager.jetsKept.Add(float64(kept))
}

// UpdateGeometryCache publishes the geometry cache counters.
func UpdateGeometryCache(hits, misses int64, size int) {
	globalManager.geometryCacheHits.Set(float64(hits))
	globalManager.geometryCacheMisses.Set(float64(misses))
	globalManager.geometryCacheSize.Set(float64(size))
}

// UpdateProductsStored sets the number of retained event products.
func UpdateProductsStored(n int) {
	globalManager.productsStored.Set(float64(n))
}

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
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueProcessingLatency records enqueue latency.
func RecordQueueProcessingLatency(latencyMs float64) {
	globalManager.queueProcessingLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// UpdateWorkerMessagesPerSecond sets the pool throughput.
func UpdateWorkerMessagesPerSecond(rate float64) {
	globalManager.workerMessagesPerSecond.Set(rate)
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

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

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap usage in bytes.
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
