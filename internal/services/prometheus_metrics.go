package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusMetrics struct {
	expensesCreated *prometheus.CounterVec
	createDuration  prometheus.Histogram
	queriesTotal    *prometheus.CounterVec
	ledgerSize      prometheus.Gauge
}

// NewPrometheusMetrics registers the ledger metrics with reg
func NewPrometheusMetrics(reg prometheus.Registerer) MetricsRecorderInterface {
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		expensesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expenses_created_total",
				Help: "Total number of create expense requests by result",
			},
			[]string{"result"},
		),
		createDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "expense_create_duration_milliseconds",
				Help:    "Create expense duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		queriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_queries_total",
				Help: "Total number of expense read operations",
			},
			[]string{"operation"},
		),
		ledgerSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "expense_ledger_size",
				Help: "Number of expenses in the ledger as of the last unfiltered listing",
			},
		),
	}
}

func (m *PrometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	switch name {
	case metricExpensesCreated:
		if result := tags["result"]; result != "" {
			m.expensesCreated.WithLabelValues(result).Inc()
		}
	case metricExpenseQueries:
		if operation := tags["operation"]; operation != "" {
			m.queriesTotal.WithLabelValues(operation).Inc()
		}
	}
}

func (m *PrometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	switch name {
	case metricCreateDuration:
		m.createDuration.Observe(float64(duration.Milliseconds()))
	}
}

func (m *PrometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	switch name {
	case metricLedgerSize:
		m.ledgerSize.Set(value)
	}
}
