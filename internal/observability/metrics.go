// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Subgraph metrics
	SubgraphRequests *prometheus.CounterVec
	SubgraphLatency  *prometheus.HistogramVec
	PagesFetched     prometheus.Counter
	TradesFetched    prometheus.Counter
	OrderCacheHits   *prometheus.CounterVec

	// Validation metrics
	ValidationRuns    *prometheus.CounterVec
	ValidationLatency prometheus.Histogram
	ResetsDetected    *prometheus.CounterVec
	DuplicatesDropped prometheus.Counter
	OrdersSkipped     *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a new Metrics instance registered with reg.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "strategy_reset_lab"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Subgraph metrics
		SubgraphRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "requests_total",
			Help:      "Total number of subgraph requests by operation and status",
		}, []string{"operation", "status"}),
		SubgraphLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "request_latency_seconds",
			Help:      "Subgraph request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		PagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "pages_fetched_total",
			Help:      "Total number of trade pages fetched",
		}),
		TradesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "trades_fetched_total",
			Help:      "Total number of strategy trades fetched",
		}),
		OrderCacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "order_cache_lookups_total",
			Help:      "Order info cache lookups by result",
		}, []string{"result"}),

		// Validation metrics
		ValidationRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "runs_total",
			Help:      "Total number of order validations by status",
		}, []string{"status"}),
		ValidationLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "duration_seconds",
			Help:      "Order validation duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		ResetsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "resets_detected_total",
			Help:      "Total number of resets by timeline",
		}, []string{"timeline"}),
		DuplicatesDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "duplicates_dropped_total",
			Help:      "Total number of rows removed by tx id deduplication",
		}),
		OrdersSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "orders_skipped_total",
			Help:      "Total number of batch orders skipped by reason",
		}, []string{"reason"}),

		// Database metrics
		DBQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful validation",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSubgraphRequest records a subgraph request and its latency.
func (m *Metrics) RecordSubgraphRequest(operation, status string, seconds float64) {
	m.SubgraphRequests.WithLabelValues(operation, status).Inc()
	m.SubgraphLatency.WithLabelValues(operation).Observe(seconds)
}

// RecordPage records one fetched page of trades.
func (m *Metrics) RecordPage(trades int) {
	m.PagesFetched.Inc()
	m.TradesFetched.Add(float64(trades))
}

// RecordCacheLookup records an order cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.OrderCacheHits.WithLabelValues(result).Inc()
}

// RecordValidation records a finished order validation.
func (m *Metrics) RecordValidation(status string, durationSeconds float64, strategyResets, mergedResets, duplicates int) {
	m.ValidationRuns.WithLabelValues(status).Inc()
	m.ValidationLatency.Observe(durationSeconds)
	if status != "success" {
		return
	}
	m.ResetsDetected.WithLabelValues("strategy").Add(float64(strategyResets))
	m.ResetsDetected.WithLabelValues("merged").Add(float64(mergedResets))
	m.DuplicatesDropped.Add(float64(duplicates))
}

// RecordSkip records a batch order that was not validated.
func (m *Metrics) RecordSkip(reason string) {
	m.OrdersSkipped.WithLabelValues(reason).Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordDBQuery records database query metrics on DefaultMetrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.RecordDBQuery(database, operation, seconds, err)
}
