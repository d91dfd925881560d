package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec
	transfers       *prometheus.CounterVec
	reassignErrors  *prometheus.CounterVec
	scanRuns        *prometheus.CounterVec
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "casedesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		errorCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casedesk",
			Name:      "http_errors_total",
			Help:      "HTTP error responses by route, method and error code.",
		}, []string{"path", "method", "code"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casedesk",
			Name:      "case_transfers_total",
			Help:      "Cases moved to a new owner by reassignment reason.",
		}, []string{"reason"}),
		reassignErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casedesk",
			Name:      "reassignment_errors_total",
			Help:      "Per-item reassignment failures by reason and kind.",
		}, []string{"reason", "kind"}),
		scanRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "casedesk",
			Name:      "vacation_scan_runs_total",
			Help:      "Vacation scan runs by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.requestDuration,
		m.errorCount,
		m.transfers,
		m.reassignErrors,
		m.scanRuns,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest observes one served request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(path, method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(path, method, code).Inc()
}

// RecordTransfers adds n moved cases for reason.
func (m *Metrics) RecordTransfers(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.transfers.WithLabelValues(reason).Add(float64(n))
}

// RecordReassignmentError counts one per-item failure.
func (m *Metrics) RecordReassignmentError(reason, kind string) {
	if m == nil {
		return
	}
	m.reassignErrors.WithLabelValues(reason, kind).Inc()
}

// RecordScanRun counts a scan run by outcome (ok, partial, failed, skipped).
func (m *Metrics) RecordScanRun(outcome string) {
	if m == nil {
		return
	}
	m.scanRuns.WithLabelValues(outcome).Inc()
}
