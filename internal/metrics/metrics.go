// Package metrics exposes Prometheus collectors for reconciliation runs and
// Shikimori calls.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"animesync/internal/reconcile"
)

// Metrics bundles the collectors on a dedicated registry.
type Metrics struct {
	Registry        *prometheus.Registry
	RunsTotal       *prometheus.CounterVec
	RunActive       prometheus.Gauge
	RunDuration     prometheus.Histogram
	RecordsTotal    *prometheus.CounterVec
	RecordDuration  prometheus.Histogram
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

var _ reconcile.Recorder = (*Metrics)(nil)

// New constructs and registers all metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animesync_runs_total",
			Help: "Reconciliation runs by result.",
		},
		[]string{"result"},
	)
	active := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "animesync_run_active",
			Help: "1 while a reconciliation run holds the slot.",
		},
	)
	runDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animesync_run_duration_seconds",
			Help:    "Wall time of finished reconciliation runs.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animesync_records_total",
			Help: "Records processed by outcome.",
		},
		[]string{"outcome"},
	)
	recordDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animesync_record_duration_seconds",
			Help:    "Time spent on one record, excluding the pause after it.",
			Buckets: prometheus.DefBuckets,
		},
	)
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animesync_shikimori_requests_total",
			Help: "Shikimori API calls by operation and result.",
		},
		[]string{"operation", "result"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animesync_shikimori_request_duration_seconds",
			Help:    "Shikimori API latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	registry.MustRegister(runs, active, runDuration, records, recordDuration, requests, requestDuration)

	return &Metrics{
		Registry:        registry,
		RunsTotal:       runs,
		RunActive:       active,
		RunDuration:     runDuration,
		RecordsTotal:    records,
		RecordDuration:  recordDuration,
		RequestsTotal:   requests,
		RequestDuration: requestDuration,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// RunStarted marks the slot as taken.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunActive.Set(1)
}

// RecordProcessed counts one record outcome.
func (m *Metrics) RecordProcessed(outcome reconcile.Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(string(outcome)).Inc()
	m.RecordDuration.Observe(elapsed.Seconds())
}

// RunFinished records the run result and clears the active gauge.
func (m *Metrics) RunFinished(report reconcile.Report, err error) {
	if m == nil {
		return
	}
	m.RunActive.Set(0)
	m.RunsTotal.WithLabelValues(runResult(report, err)).Inc()
	if err == nil {
		m.RunDuration.Observe(report.Duration.Seconds())
	}
}

// ObserveRequest matches shikimori.Observer.
func (m *Metrics) ObserveRequest(operation string, latency time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RequestsTotal.WithLabelValues(operation, result).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(latency.Seconds())
}

func runResult(report reconcile.Report, err error) string {
	switch {
	case errors.Is(err, reconcile.ErrStoreUnreachable):
		return "store_unreachable"
	case err != nil:
		return "error"
	case report.Stopped:
		return "stopped"
	default:
		return "completed"
	}
}
