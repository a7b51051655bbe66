package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements the Metrics interface using Prometheus.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	// Store metrics
	latestVersion  prometheus.Gauge
	nodeReads      *prometheus.CounterVec
	valueLookups   *prometheus.CounterVec
	preimageWrites prometheus.Counter
	lookupLatency  *prometheus.HistogramVec

	// Batch metrics
	batchesApplied prometheus.Counter
	batchErrors    *prometheus.CounterVec
	batchNodes     prometheus.Histogram
	batchValues    prometheus.Histogram
	batchLatency   prometheus.Histogram
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,

		latestVersion: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "latest_version",
				Help:      "Greatest committed state version",
			},
		),
		nodeReads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "node_reads_total",
				Help:      "Total number of tree node reads",
			},
			[]string{"result"},
		),
		valueLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "value_lookups_total",
				Help:      "Total number of versioned value lookups",
			},
			[]string{"result"},
		),
		preimageWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "preimage_writes_total",
				Help:      "Total number of preimage index writes",
			},
		),
		lookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lookup_latency_seconds",
				Help:      "Latency of read operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		batchesApplied: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_applied_total",
				Help:      "Total number of node batches applied",
			},
		),
		batchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_errors_total",
				Help:      "Total number of failed batch applications",
			},
			[]string{"reason"},
		),
		batchNodes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_nodes",
				Help:      "Number of node writes per batch",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		batchValues: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_values",
				Help:      "Number of value writes per batch",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
		),
		batchLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_latency_seconds",
				Help:      "Latency of batch application",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		m.latestVersion,
		m.nodeReads,
		m.valueLookups,
		m.preimageWrites,
		m.lookupLatency,
		m.batchesApplied,
		m.batchErrors,
		m.batchNodes,
		m.batchValues,
		m.batchLatency,
	)

	return m
}

// Store metrics

func (m *PrometheusMetrics) SetLatestVersion(version uint64) {
	m.latestVersion.Set(float64(version))
}

func (m *PrometheusMetrics) IncNodeReads(result string) {
	m.nodeReads.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) IncValueLookups(result string) {
	m.valueLookups.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) IncPreimageWrites() {
	m.preimageWrites.Inc()
}

func (m *PrometheusMetrics) ObserveLookupLatency(op string, latency time.Duration) {
	m.lookupLatency.WithLabelValues(op).Observe(latency.Seconds())
}

// Batch metrics

func (m *PrometheusMetrics) IncBatchesApplied() {
	m.batchesApplied.Inc()
}

func (m *PrometheusMetrics) IncBatchErrors(reason string) {
	m.batchErrors.WithLabelValues(reason).Inc()
}

func (m *PrometheusMetrics) ObserveBatchNodes(count int) {
	m.batchNodes.Observe(float64(count))
}

func (m *PrometheusMetrics) ObserveBatchValues(count int) {
	m.batchValues.Observe(float64(count))
}

func (m *PrometheusMetrics) ObserveBatchLatency(latency time.Duration) {
	m.batchLatency.Observe(latency.Seconds())
}

// Handler returns an http.Handler serving the metrics registry.
func (m *PrometheusMetrics) Handler() any {
	return m.HTTPHandler()
}

// HTTPHandler returns the typed http.Handler for the registry.
func (m *PrometheusMetrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
