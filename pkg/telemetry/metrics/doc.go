// Package metrics provides Prometheus metrics for the gateway.
//
// # Metrics Categories
//
//   - HTTP: requests by route and status, handler duration
//   - Dispatch: gateway outcomes by route, model and error kind
//   - Tokens: prompt and completion tokens, upstream-reported or estimated
//   - Upstream: call latency, errors by kind, passive health
//   - Relay: active streams, finished streams by result, chunks delivered
//
// The rate limiter registers its own collectors (decisions, check duration,
// tracked windows, evictions) with the same registry.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordDispatch("/chat", "gpt-4", "completed", time.Second)
//	mux.Handle("/metrics", collector.Handler())
//
// # Cardinality Management
//
// Model names reach the collector before validation, so model label values
// are capped. Values beyond the cap are recorded as "other".
package metrics
