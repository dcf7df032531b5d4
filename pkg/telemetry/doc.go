// Package telemetry groups the gateway's observability packages.
//
//   - logging: slog setup with request-scoped fields and credential redaction
//   - metrics: Prometheus collectors for HTTP traffic, dispatch outcomes,
//     upstream calls, token usage and relayed streams
//   - tracing: OpenTelemetry spans per dispatch, W3C propagation, OTLP export
//   - health: liveness and readiness probes
//
// Each package is configured from its section of config.TelemetryConfig and
// is safe to use when disabled: a nil metrics collector records nothing and
// a disabled tracer hands out no-op spans.
package telemetry
