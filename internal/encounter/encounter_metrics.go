package encounter

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the encounter pipeline.
type Metrics struct {
	IntakesTotal     *prometheus.CounterVec
	TransitionsTotal *prometheus.CounterVec
	QueueSize        prometheus.Histogram
}

// NewMetrics registers and returns encounter metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IntakesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_intakes_total",
			Help: "Total encounter intakes by mode and triage source.",
		}, []string{"mode", "triage"}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_transitions_total",
			Help: "Total lifecycle transition attempts by transition and outcome.",
		}, []string{"transition", "outcome"}),
		QueueSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "helpdesk_queue_size",
			Help:    "Assembled work queue length per read.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 .. ~512
		}),
	}

	reg.MustRegister(
		m.IntakesTotal,
		m.TransitionsTotal,
		m.QueueSize,
	)

	return m
}

func (m *Metrics) incIntake(mode string, degraded bool) {
	if m == nil {
		return
	}
	triage := "scored"
	if degraded {
		triage = "fallback"
	}
	if mode == "manual" {
		triage = "supplied"
	}
	m.IntakesTotal.WithLabelValues(mode, triage).Inc()
}

func (m *Metrics) incTransition(transition, outcome string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(transition, outcome).Inc()
}

func (m *Metrics) observeQueueSize(n int) {
	if m == nil {
		return
	}
	m.QueueSize.Observe(float64(n))
}
