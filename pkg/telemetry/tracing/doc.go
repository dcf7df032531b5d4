// Package tracing provides OpenTelemetry tracing for the gateway.
//
// # Overview
//
// Each dispatched request gets one span carrying its route, completion
// kind, model, a hashed client identity and the outcome. Spans are
// exported over OTLP gRPC. Incoming W3C Trace Context headers are honoured,
// so a caller's trace continues through the gateway.
//
// # Sampling
//
// telemetry.tracing.sample_ratio selects the fraction of new traces that are
// sampled. Child spans follow the parent's decision.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "gateway.dispatch",
//	    trace.WithAttributes(tracing.DispatchAttributes(route, kind, model, client, reqID, false)...))
//	defer span.End()
//
// When tracing is disabled the tracer is a noop and spans cost almost nothing.
// Span attributes never include message content.
package tracing
