// Package metrics exposes the Prometheus collectors of the ledger backend.
// All methods are safe on a nil *Metrics so tests can skip instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ledgerAppends       *prometheus.CounterVec
	ledgerRejected      *prometheus.CounterVec
	consistencyFailures *prometheus.CounterVec
	closures            prometheus.Counter
	reclosures          prometheus.Counter
	jobs                *prometheus.CounterVec
	publishFailures     prometheus.Counter
	httpDuration        *prometheus.HistogramVec
}

// New registers every collector on reg and returns the set.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ledgerAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chicpos_ledger_appends_total",
			Help: "Ledger events appended, by kind.",
		}, []string{"kind"}),
		ledgerRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chicpos_ledger_rejected_total",
			Help: "Ledger appends rejected by validation, by kind.",
		}, []string{"kind"}),
		consistencyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chicpos_consistency_failures_total",
			Help: "Coupled writes that only partially succeeded, by operation.",
		}, []string{"op"}),
		closures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chicpos_daily_closures_total",
			Help: "Daily closures written.",
		}),
		reclosures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chicpos_daily_reclosures_total",
			Help: "Daily closures written for a day that was already closed.",
		}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chicpos_worker_jobs_total",
			Help: "Async jobs processed, by type and status.",
		}, []string{"type", "status"}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chicpos_event_publish_failures_total",
			Help: "Ledger events that could not be published to the broker.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chicpos_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.ledgerAppends, m.ledgerRejected, m.consistencyFailures,
		m.closures, m.reclosures, m.jobs, m.publishFailures, m.httpDuration,
	)
	return m
}

func (m *Metrics) LedgerAppended(kind string) {
	if m == nil {
		return
	}
	m.ledgerAppends.WithLabelValues(kind).Inc()
}

func (m *Metrics) LedgerRejected(kind string) {
	if m == nil {
		return
	}
	m.ledgerRejected.WithLabelValues(kind).Inc()
}

func (m *Metrics) ConsistencyFailure(op string) {
	if m == nil {
		return
	}
	m.consistencyFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) ClosureWritten(reclose bool) {
	if m == nil {
		return
	}
	m.closures.Inc()
	if reclose {
		m.reclosures.Inc()
	}
}

func (m *Metrics) JobProcessed(jobType, status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(jobType, status).Inc()
}

func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
