package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const testTraceParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func usePropagator(t *testing.T) {
	t.Helper()
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })
}

func TestHTTPMiddleware(t *testing.T) {
	usePropagator(t)

	var sawTrace string
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawTrace = TraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.Header.Set("traceparent", testTraceParent)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if sawTrace != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("handler did not receive the caller's trace, got %q", sawTrace)
	}
	if rec.Header().Get("X-Trace-ID") != sawTrace {
		t.Errorf("expected X-Trace-ID header, got %q", rec.Header().Get("X-Trace-ID"))
	}

	// Without a valid traceparent no header is set.
	for _, tp := range []string{"", "invalid", "00-00000000000000000000000000000000-00f067aa0ba902b7-01"} {
		req := httptest.NewRequest(http.MethodGet, "/chat", nil)
		if tp != "" {
			req.Header.Set("traceparent", tp)
		}
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Header().Get("X-Trace-ID") != "" {
			t.Errorf("traceparent %q: expected no X-Trace-ID", tp)
		}
	}
}
