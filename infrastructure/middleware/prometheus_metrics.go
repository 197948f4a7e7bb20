// Package middleware provides cross-cutting concerns for the scoring
// engine: metrics, tracing, and ledger read pacing.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/obedier/fundscore/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks score operation latency, operation and
// degradation counts, and current system state for the engine.
type PrometheusMetrics struct {
	operationLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers its metrics with the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests pass a private
// registry to avoid duplicate registration.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundscore_operation_duration_seconds",
				Help:    "Execution time of score engine operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundscore_operations_total",
				Help: "Total number of score engine operations by outcome.",
			},
			[]string{"metric", "operation"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fundscore_system_state",
				Help: "Current system state values for the score engine.",
			},
			[]string{"metric", "operation"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by
// incrementing Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	operation := labels["operation"]
	if operation == "" {
		operation = "unknown"
	}
	pm.operationCounter.WithLabelValues(metric, operation).Add(value)
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauges.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	operation := labels["operation"]
	if operation == "" {
		operation = "unknown"
	}
	pm.systemGauges.WithLabelValues(metric, operation).Set(value)
}
