package scorer

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the scorer gateway.
type Metrics struct {
	CallsTotal   *prometheus.CounterVec
	CallDuration prometheus.Histogram
}

// NewMetrics registers and returns scorer metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_scorer_calls_total",
			Help: "Total scoring calls by outcome.",
		}, []string{"outcome"}),
		CallDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "helpdesk_scorer_call_duration_seconds",
			Help:    "Duration of scoring calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}),
	}

	reg.MustRegister(
		m.CallsTotal,
		m.CallDuration,
	)

	return m
}

func (m *Metrics) observeCall(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CallsTotal.WithLabelValues(outcome).Inc()
	m.CallDuration.Observe(seconds)
}
