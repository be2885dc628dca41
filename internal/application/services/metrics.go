package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SchedulerMetrics counts reminder sweeps. A nil *SchedulerMetrics is valid
// and records nothing.
type SchedulerMetrics struct {
	sweeps   prometheus.Counter
	fired    prometheus.Counter
	skipped  prometheus.Counter
	failures prometheus.Counter
}

// NewSchedulerMetrics creates and registers the reminder counters
func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_reminder_sweeps_total",
			Help: "Number of due-soon sweeps run",
		}),
		fired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_reminders_fired_total",
			Help: "Number of due-soon reminders delivered",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_reminder_sweeps_skipped_total",
			Help: "Sweeps skipped because notifications are not permitted",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "planner_reminder_failures_total",
			Help: "Reminders the notifier failed to deliver",
		}),
	}
	reg.MustRegister(m.sweeps, m.fired, m.skipped, m.failures)
	return m
}

func (m *SchedulerMetrics) sweep() {
	if m != nil {
		m.sweeps.Inc()
	}
}

func (m *SchedulerMetrics) fire() {
	if m != nil {
		m.fired.Inc()
	}
}

func (m *SchedulerMetrics) skip() {
	if m != nil {
		m.skipped.Inc()
	}
}

func (m *SchedulerMetrics) failure() {
	if m != nil {
		m.failures.Inc()
	}
}

// RegisterStoreMetrics exposes task counts as gauges read at scrape time.
func RegisterStoreMetrics(reg prometheus.Registerer, store *TaskStore) {
	reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "planner_tasks",
			Help: "Number of tasks in the store",
		}, func() float64 {
			return float64(len(store.Tasks()))
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "planner_tasks_pending",
			Help: "Number of incomplete tasks",
		}, func() float64 {
			return float64(len(store.Pending()))
		}),
	)
}
