// Package logging configures structured logging on log/slog.
//
// # Overview
//
//   - JSON (default) or text output at a configured level
//   - Request-scoped fields: request_id, client_id and route are read from
//     the context of every *Context logging call
//   - Credential redaction: attributes under keys such as api_key or
//     authorization are masked, and sk- keys or bearer tokens inside any
//     string or error value are replaced
//
// # Usage
//
//	logger, err := logging.Setup(&cfg.Telemetry.Logging)
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "request completed", "latency_ms", 42)
//	// {"level":"INFO","msg":"request completed","latency_ms":42,"request_id":"req-123"}
//
// Message and prompt content is never passed to the logger by the gateway.
package logging
