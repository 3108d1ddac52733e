package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AccrualMetrics tracks the accrual generator and its scheduled runs.
type AccrualMetrics struct {
	entriesCreated prometheus.Counter
	runDuration    *prometheus.HistogramVec
	runSuccess     *prometheus.CounterVec
	runFailure     *prometheus.CounterVec
}

// NewAccrualMetrics registers accrual metrics on the provided registerer.
func NewAccrualMetrics(reg prometheus.Registerer) *AccrualMetrics {
	if reg == nil {
		return &AccrualMetrics{}
	}
	entriesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "accrual_entries_created_total",
		Help: "Monthly charge ledger entries created by the accrual generator.",
	})
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	runSuccess := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful scheduled job executions.",
	}, []string{"job"})
	runFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed scheduled job executions.",
	}, []string{"job"})
	reg.MustRegister(entriesCreated, runDuration, runSuccess, runFailure)
	return &AccrualMetrics{
		entriesCreated: entriesCreated,
		runDuration:    runDuration,
		runSuccess:     runSuccess,
		runFailure:     runFailure,
	}
}

// AddEntriesCreated records ledger entries materialized by an accrual call.
func (m *AccrualMetrics) AddEntriesCreated(n int) {
	if m == nil || m.entriesCreated == nil || n <= 0 {
		return
	}
	m.entriesCreated.Add(float64(n))
}

// ObserveRun records a completed scheduled run for the named job.
func (m *AccrualMetrics) ObserveRun(job string, duration time.Duration, err error) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.WithLabelValues(job).Observe(duration.Seconds())
	if err != nil {
		m.runFailure.WithLabelValues(job).Inc()
		return
	}
	m.runSuccess.WithLabelValues(job).Inc()
}
