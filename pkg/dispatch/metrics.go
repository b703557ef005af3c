package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts queue activity per queue label. A nil *Metrics records
// nothing.
type Metrics struct {
	Submitted *prometheus.CounterVec
	Executed  *prometheus.CounterVec
	Rejected  *prometheus.CounterVec
	Panics    *prometheus.CounterVec
	Pending   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	counter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "actorgen",
			Subsystem: "dispatch",
			Name:      name,
			Help:      help,
		}, []string{"queue"})
	}

	m := &Metrics{
		Submitted: counter("tasks_submitted_total", "Tasks accepted by the queue."),
		Executed:  counter("tasks_executed_total", "Tasks that ran to completion."),
		Rejected:  counter("tasks_rejected_total", "Tasks refused by the queue."),
		Panics:    counter("task_panics_total", "Tasks that panicked."),
		Pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "actorgen",
			Subsystem: "dispatch",
			Name:      "tasks_pending",
			Help:      "Tasks accepted but not yet started.",
		}, []string{"queue"}),
	}

	for _, c := range []prometheus.Collector{m.Submitted, m.Executed, m.Rejected, m.Panics, m.Pending} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) submitted(queue string) {
	if m == nil {
		return
	}
	m.Submitted.WithLabelValues(queue).Inc()
	m.Pending.WithLabelValues(queue).Inc()
}

func (m *Metrics) dequeued(queue string) {
	if m == nil {
		return
	}
	m.Pending.WithLabelValues(queue).Dec()
}

func (m *Metrics) executed(queue string) {
	if m == nil {
		return
	}
	m.Executed.WithLabelValues(queue).Inc()
}

func (m *Metrics) rejected(queue string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(queue).Inc()
}

func (m *Metrics) panicked(queue string) {
	if m == nil {
		return
	}
	m.Panics.WithLabelValues(queue).Inc()
}
