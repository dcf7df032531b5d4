package ratelimit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains Prometheus collectors for limiter decisions.
// A nil *Metrics records nothing.
type Metrics struct {
	decisions     *prometheus.CounterVec
	checkDuration prometheus.Histogram
	windows       prometheus.Gauge
	evictions     prometheus.Counter
}

// NewMetrics registers limiter collectors with reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "decisions_total",
				Help:      "Rate limit decisions by outcome",
			},
			[]string{"outcome"},
		),
		checkDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "check_duration_seconds",
				Help:      "Time spent in rate limit checks",
				Buckets:   []float64{.00005, .0001, .0005, .001, .005, .01, .05},
			},
		),
		windows: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "tracked_windows",
				Help:      "Client windows currently held by the store",
			},
		),
		evictions: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ratelimit",
				Name:      "evictions_total",
				Help:      "Idle client windows removed by the sweeper",
			},
		),
	}
}

func (m *Metrics) observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(outcome).Inc()
	m.checkDuration.Observe(d.Seconds())
}

func (m *Metrics) evicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictions.Add(float64(n))
}

func (m *Metrics) tracked(n int) {
	if m == nil || n < 0 {
		return
	}
	m.windows.Set(float64(n))
}
