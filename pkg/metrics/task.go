package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Task outcomes used as the "outcome" label.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeRetried   = "retried"
	OutcomeFailed    = "failed"
)

// TaskMetrics records background task execution in the worker.
type TaskMetrics struct {
	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	claimed   prometheus.Counter
}

// NewTaskMetrics registers the task metrics on reg. A nil registerer yields
// a no-op recorder.
func NewTaskMetrics(reg prometheus.Registerer) *TaskMetrics {
	if reg == nil {
		return &TaskMetrics{}
	}
	m := &TaskMetrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_processed_total",
			Help:      "Task attempts by type and outcome.",
		}, []string{"task_type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "task_duration_seconds",
			Help:      "Task handler duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 180, 600},
		}, []string{"task_type"}),
		claimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "tasks_claimed_total",
			Help:      "Tasks claimed from the queue.",
		}),
	}
	reg.MustRegister(m.processed, m.duration, m.claimed)
	return m
}

func (m *TaskMetrics) Observe(taskType, outcome string, duration time.Duration) {
	if m == nil || m.processed == nil {
		return
	}
	taskType = normalizeLabel(taskType)
	m.processed.WithLabelValues(taskType, outcome).Inc()
	m.duration.WithLabelValues(taskType).Observe(duration.Seconds())
}

func (m *TaskMetrics) AddClaimed(n int) {
	if m == nil || m.claimed == nil || n <= 0 {
		return
	}
	m.claimed.Add(float64(n))
}
