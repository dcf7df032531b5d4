package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/gateway/pkg/config"
)

// RequestMetrics tracks inbound requests and their gateway outcomes.
//
// Metrics:
//   - gateway_http_requests_total: served requests by route and status
//   - gateway_http_request_duration_seconds: handler duration by route
//   - gateway_dispatch_total: dispatcher outcomes by route, model, outcome
//   - gateway_dispatch_duration_seconds: dispatcher duration by route
//   - gateway_tokens_total: tokens by model, type and source
type RequestMetrics struct {
	httpTotal    *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	dispatchTotal    *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec

	tokensTotal *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		httpTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"route", "status"},
		),

		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"route"},
		),

		dispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "dispatch_total",
				Help:      "Gateway requests by route, model and outcome",
			},
			[]string{"route", "model", "outcome"},
		),

		dispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Duration from admission check to result in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"route"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "tokens_total",
				Help:      "Tokens consumed by model, type and source",
			},
			[]string{"model", "type", "source"},
		),
	}

	registry.MustRegister(
		rm.httpTotal,
		rm.httpDuration,
		rm.dispatchTotal,
		rm.dispatchDuration,
		rm.tokensTotal,
	)

	return rm
}

// RecordHTTP records one served HTTP request.
func (rm *RequestMetrics) RecordHTTP(route, status string, duration time.Duration) {
	rm.httpTotal.WithLabelValues(route, status).Inc()
	rm.httpDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordDispatch records one dispatcher outcome.
func (rm *RequestMetrics) RecordDispatch(route, model, outcome string, duration time.Duration) {
	rm.dispatchTotal.WithLabelValues(route, model, outcome).Inc()
	rm.dispatchDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordTokens records token counts separately for prompt and completion.
// Source is "upstream" for reported usage and "estimated" otherwise.
func (rm *RequestMetrics) RecordTokens(model string, promptTokens, completionTokens int, estimated bool) {
	source := "upstream"
	if estimated {
		source = "estimated"
	}
	if promptTokens > 0 {
		rm.tokensTotal.WithLabelValues(model, "prompt", source).Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		rm.tokensTotal.WithLabelValues(model, "completion", source).Add(float64(completionTokens))
	}
}
