package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/gateway/pkg/config"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return NewWithProvider(provider), recorder
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.TracingConfig
		wantErr     bool
		wantEnabled bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name: "disabled tracing",
			config: &config.TracingConfig{
				Enabled:     false,
				ServiceName: "test-service",
			},
		},
		{
			name: "enabled with lazy connection",
			config: &config.TracingConfig{
				Enabled:     true,
				Endpoint:    "localhost:4317",
				Insecure:    true,
				SampleRatio: 0.5,
				ServiceName: "test-service",
				Timeout:     time.Second,
			},
			wantEnabled: true,
		},
		{
			name: "invalid sample ratio",
			config: &config.TracingConfig{
				Enabled:     true,
				Endpoint:    "localhost:4317",
				SampleRatio: 1.5,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, "test")
			if tt.wantErr {
				if err == nil {
					t.Error("New() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if tracer.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.wantEnabled)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			// Nothing was exported, so shutdown does not need a collector.
			_ = tracer.Shutdown(ctx)
		})
	}
}

func TestTracer_DisabledSpansAreNoop(t *testing.T) {
	tracer, err := New(&config.TracingConfig{}, "test")
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	_, span := tracer.Start(context.Background(), "gateway.dispatch")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Error("expected an invalid span context from a disabled tracer")
	}
	if span.IsRecording() {
		t.Error("expected a non-recording span")
	}
}

func TestTracer_NilIsNoop(t *testing.T) {
	var tracer *Tracer

	ctx, span := tracer.Start(context.Background(), "gateway.dispatch")
	span.End()

	if TraceID(ctx) != "" {
		t.Error("expected no trace ID from a nil tracer")
	}
	if tracer.Enabled() {
		t.Error("nil tracer must report disabled")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on nil tracer: %v", err)
	}
}

func TestTracer_Start(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	ctx, parent := tracer.Start(context.Background(), "parent")
	_, child := tracer.Start(ctx, "child")
	child.End()
	parent.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Parent().SpanID() != spans[1].SpanContext().SpanID() {
		t.Error("expected child to be linked to parent")
	}
	if TraceID(ctx) != spans[1].SpanContext().TraceID().String() {
		t.Error("TraceID() does not match the parent span")
	}
}

func TestSetError(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, span := tracer.Start(context.Background(), "op")
	SetError(span, nil)
	SetError(span, errors.New("boom"))
	span.End()

	got := recorder.Ended()[0]
	if got.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", got.Status().Code)
	}
	if len(got.Events()) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(got.Events()))
	}
}

func TestSetStatus(t *testing.T) {
	tracer, recorder := newRecordingTracer(t)

	_, ok := tracer.Start(context.Background(), "ok")
	SetStatus(ok, nil)
	ok.End()

	_, failed := tracer.Start(context.Background(), "failed")
	SetStatus(failed, errors.New("boom"))
	failed.End()

	spans := recorder.Ended()
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("expected ok status, got %v", spans[0].Status().Code)
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[1].Status().Code)
	}
}

func TestSpanFromContext(t *testing.T) {
	tracer, _ := newRecordingTracer(t)

	if SpanFromContext(context.Background()).SpanContext().IsValid() {
		t.Error("expected invalid span without a started span")
	}

	ctx, span := tracer.Start(context.Background(), "op")
	defer span.End()
	if !SpanFromContext(ctx).SpanContext().Equal(span.SpanContext()) {
		t.Error("SpanFromContext() did not return the started span")
	}
}
