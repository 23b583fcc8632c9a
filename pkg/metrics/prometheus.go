// Package metrics provides Prometheus metrics for the sinkhole early-warning
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion metrics.
	readingsAccepted  prometheus.Counter
	readingsRejected  prometheus.Counter
	readingsByLevel   *prometheus.CounterVec
	persistenceErrors prometheus.Counter
	ingestLatency     prometheus.Histogram

	// Broadcast metrics.
	subscriberCount    prometheus.Gauge
	broadcastDelivered prometheus.Counter
	broadcastDropped   prometheus.Counter

	// History store metrics.
	historyRecords prometheus.Gauge
	storeLatency   prometheus.Histogram

	// Threshold admin metrics.
	thresholdUpdates prometheus.Counter

	// MQTT bridge metrics.
	mqttMessages prometheus.Counter
	mqttInvalid  prometheus.Counter

	// HTTP metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics.
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry so the default Go collectors stay out of /healthz.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "sinker",
		subsystem:        "telemetry",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.readingsAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "readings_accepted_total",
		Help:      "Total number of sensor readings accepted and persisted",
	})

	m.readingsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "readings_rejected_total",
		Help:      "Total number of sensor readings rejected by validation",
	})

	m.readingsByLevel = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "readings_by_risk_level_total",
			Help:      "Accepted readings partitioned by classified risk level",
		},
		[]string{"level"},
	)

	m.persistenceErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persistence_errors_total",
		Help:      "Total number of failed history store writes",
	})

	m.ingestLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_latency_milliseconds",
		Help:      "Classify-persist-broadcast latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.subscriberCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_subscribers",
		Help:      "Current number of registered live subscribers",
	})

	m.broadcastDelivered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_delivered_total",
		Help:      "Total number of record deliveries handed to subscribers",
	})

	m.broadcastDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "broadcast_dropped_total",
		Help:      "Total number of deliveries dropped due to subscriber failure",
	})

	m.historyRecords = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "history_records",
		Help:      "Number of records currently visible in the history store",
	})

	m.storeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_latency_milliseconds",
		Help:      "History store operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.thresholdUpdates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "threshold_updates_total",
		Help:      "Total number of threshold upserts via the admin surface",
	})

	m.mqttMessages = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mqtt_messages_total",
		Help:      "Total number of readings received over the MQTT bridge",
	})

	m.mqttInvalid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mqtt_invalid_payloads_total",
		Help:      "Total number of MQTT payloads dropped as malformed",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// Package-level helpers operating on the global manager.

// RecordReadingAccepted increments the accepted readings counter and the
// per-level breakdown.
func RecordReadingAccepted(level string) {
	globalManager.readingsAccepted.Inc()
	globalManager.readingsByLevel.WithLabelValues(level).Inc()
}

// RecordReadingRejected increments the rejected readings counter.
func RecordReadingRejected() {
	globalManager.readingsRejected.Inc()
}

// RecordPersistenceError increments the persistence error counter.
func RecordPersistenceError() {
	globalManager.persistenceErrors.Inc()
}

// RecordIngestLatency observes one classify-persist-broadcast duration.
func RecordIngestLatency(latencyMs float64) {
	globalManager.ingestLatency.Observe(latencyMs)
}

// UpdateSubscriberCount sets the live subscriber gauge.
func UpdateSubscriberCount(count int) {
	globalManager.subscriberCount.Set(float64(count))
}

// RecordBroadcastDelivered increments the delivered counter.
func RecordBroadcastDelivered() {
	globalManager.broadcastDelivered.Inc()
}

// RecordBroadcastDropped increments the dropped-delivery counter.
func RecordBroadcastDropped() {
	globalManager.broadcastDropped.Inc()
}

// UpdateHistoryRecords sets the visible record count gauge.
func UpdateHistoryRecords(count int) {
	globalManager.historyRecords.Set(float64(count))
}

// RecordStoreLatency observes one history store operation.
func RecordStoreLatency(latencyMs float64) {
	globalManager.storeLatency.Observe(latencyMs)
}

// RecordThresholdUpdate increments the threshold upsert counter.
func RecordThresholdUpdate() {
	globalManager.thresholdUpdates.Inc()
}

// RecordMQTTMessage increments the MQTT message counter.
func RecordMQTTMessage() {
	globalManager.mqttMessages.Inc()
}

// RecordMQTTInvalidPayload increments the malformed MQTT payload counter.
func RecordMQTTInvalidPayload() {
	globalManager.mqttInvalid.Inc()
}

// RecordHTTPRequest increments the request counter for an endpoint.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one request duration for an endpoint.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// UpdateSystemMemoryUsage sets the heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry /healthz serves from.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
