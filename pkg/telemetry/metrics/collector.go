package metrics

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/gateway/pkg/config"
)

// otherLabel replaces label values once the cardinality limit is reached.
const otherLabel = "other"

// Collector owns the gateway's Prometheus registry and the collectors
// recorded by the HTTP layer, the dispatcher and the upstream adapter.
//
// A nil *Collector, or one built from a disabled config, records nothing.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	upstreamMetrics *UpstreamMetrics
	streamMetrics   *StreamMetrics

	// Model labels come from client input before validation.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a new registry with the Go
// runtime and process collectors is created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// Optimized for LLM request latencies (100ms - 30s)
		cfg.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)
	c.streamMetrics = NewStreamMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// model bounds the cardinality of model labels.
func (c *Collector) model(model string) string {
	if model == "" {
		return "none"
	}
	if !c.cardinalityLimiter.Allow(model) {
		return otherLabel
	}
	return model
}

// RecordHTTPRequest records one served HTTP request.
//
// Parameters:
//   - route: registered route pattern (e.g., "/chat")
//   - status: HTTP status code written
//   - duration: time until the handler returned
func (c *Collector) RecordHTTPRequest(route string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.RecordHTTP(route, strconv.Itoa(status), duration)
}

// RecordDispatch records the outcome of one dispatched gateway request.
// Outcome is "completed" or an error kind such as "rate_limited".
func (c *Collector) RecordDispatch(route, model, outcome string, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.RecordDispatch(route, c.model(model), outcome, duration)
}

// RecordTokens records token usage for a completed request.
func (c *Collector) RecordTokens(model string, promptTokens, completionTokens int, estimated bool) {
	if !c.enabled() {
		return
	}
	c.requestMetrics.RecordTokens(c.model(model), promptTokens, completionTokens, estimated)
}

// RecordUpstreamCall records the latency of an upstream API call.
func (c *Collector) RecordUpstreamCall(provider, model string, latency time.Duration) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordRequest(provider, c.model(model))
	c.upstreamMetrics.RecordLatency(provider, c.model(model), latency.Seconds())
}

// RecordUpstreamError records an upstream failure by gateway error kind.
func (c *Collector) RecordUpstreamError(provider, kind string) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.RecordError(provider, kind)
}

// UpdateProviderHealth updates the health status of a provider.
// The health metric is a gauge where 1=healthy, 0=unhealthy.
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.enabled() {
		return
	}
	c.upstreamMetrics.UpdateHealth(provider, healthy)
}

// StreamStarted marks a relay as active.
func (c *Collector) StreamStarted() {
	if !c.enabled() {
		return
	}
	c.streamMetrics.active.Inc()
}

// StreamFinished records a finished relay. Result is "completed",
// "interrupted", "failed" or "canceled".
func (c *Collector) StreamFinished(result string, chunks int) {
	if !c.enabled() {
		return
	}
	c.streamMetrics.active.Dec()
	c.streamMetrics.RecordStream(result, chunks)
}

// Registry returns the Prometheus registry used by this collector.
// Other packages register their own collectors with it, for example
// ratelimit.NewMetrics(collector.Registry(), namespace).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Namespace returns the configured metric namespace.
func (c *Collector) Namespace() string {
	return c.config.Namespace
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label values.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label value is allowed. Returns true if the value
// already exists or if the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(label string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[label]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[label]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[label] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}

// String implements fmt.Stringer for debugging.
func (cl *CardinalityLimiter) String() string {
	return fmt.Sprintf("cardinality %d/%d", cl.Count(), cl.maxCardinality)
}
