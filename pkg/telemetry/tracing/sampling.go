package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// createSampler returns a parent-based sampler. A ratio of 1 samples every
// trace; lower ratios sample by trace ID hash, so every service in a trace
// makes the same decision.
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    sample_ratio: 0.1  # Sample 10% of traces
func createSampler(ratio float64) (sdktrace.Sampler, error) {
	if ratio < 0.0 || ratio > 1.0 {
		return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
	}

	var base sdktrace.Sampler
	switch {
	case ratio == 1.0:
		base = sdktrace.AlwaysSample()
	case ratio == 0.0:
		base = sdktrace.NeverSample()
	default:
		base = sdktrace.TraceIDRatioBased(ratio)
	}

	// Respect the caller's sampling decision when a parent span exists.
	return sdktrace.ParentBased(base), nil
}
