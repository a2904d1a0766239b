package layout

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Layout outcomes used as the "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Metrics counts resize passes and their outcomes.
type Metrics struct {
	Passes       prometheus.Counter
	Layouts      *prometheus.CounterVec
	PassDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_passes_total",
			Help:      "Total number of resize passes",
		}),
		Layouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "layout_views_total",
				Help:      "Views visited by resize passes, by outcome",
			},
			[]string{"outcome"},
		),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_pass_duration_seconds",
			Help:      "Duration of resize passes",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Passes, m.Layouts, m.PassDuration)
	}
	return m
}

func (m *Metrics) observe(res Result, d time.Duration) {
	if m == nil {
		return
	}
	m.Passes.Inc()
	m.Layouts.WithLabelValues(OutcomeOK).Add(float64(len(res.Laid)))
	m.Layouts.WithLabelValues(OutcomeFailed).Add(float64(len(res.Failed)))
	m.Layouts.WithLabelValues(OutcomeSkipped).Add(float64(res.Skipped))
	m.PassDuration.Observe(d.Seconds())
}
