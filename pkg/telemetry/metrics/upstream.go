package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/gateway/pkg/config"
)

// UpstreamMetrics tracks calls to the upstream LLM API.
//
// Metrics:
//   - gateway_upstream_health: provider health status (1=healthy, 0=unhealthy)
//   - gateway_upstream_latency_seconds: upstream API latency
//   - gateway_upstream_errors_total: upstream errors by gateway error kind
//   - gateway_upstream_requests_total: upstream calls by model
type UpstreamMetrics struct {
	health   *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "health",
				Help:      "Upstream health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "latency_seconds",
				Help:      "Upstream API call latency in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "errors_total",
				Help:      "Total number of upstream errors by kind",
			},
			[]string{"provider", "kind"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "upstream",
				Name:      "requests_total",
				Help:      "Total number of upstream calls",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		um.health,
		um.latency,
		um.errors,
		um.requests,
	)

	return um
}

// UpdateHealth sets the health gauge of a provider.
func (um *UpstreamMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	um.health.WithLabelValues(provider).Set(value)
}

// RecordLatency records the latency of an upstream call.
func (um *UpstreamMetrics) RecordLatency(provider, model string, latencySeconds float64) {
	um.latency.WithLabelValues(provider, model).Observe(latencySeconds)
}

// RecordError records an upstream failure.
//
// Kinds follow the gateway taxonomy:
//   - "upstream_auth_error": credential rejected
//   - "upstream_timeout": deadline exceeded
//   - "upstream_unavailable": quota, 5xx, transport or parse failure
//   - "stream_interrupted": failure after chunks were relayed
func (um *UpstreamMetrics) RecordError(provider, kind string) {
	um.errors.WithLabelValues(provider, kind).Inc()
}

// RecordRequest records one upstream call.
func (um *UpstreamMetrics) RecordRequest(provider, model string) {
	um.requests.WithLabelValues(provider, model).Inc()
}
