package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"mercator-hq/gateway/pkg/telemetry/metrics"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
// It exposes the wrapped writer through Unwrap so http.ResponseController
// can still flush streamed responses.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush implements http.Flusher.
func (rw *responseWriter) Flush() {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the wrapped writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// status returns the written status, or 499 when the handler wrote
// nothing because the client went away.
func (rw *responseWriter) status(r *http.Request) int {
	if !rw.written && r.Context().Err() != nil {
		return 499
	}
	return rw.statusCode
}

// LoggingMiddleware logs each request on completion with method, path,
// status and latency. Request ID and client come from the context through
// the logging handler. 5xx responses log at error level, 4xx at warn.
//
// Example log line:
//
//	{"time":"...","level":"INFO","msg":"request completed","method":"POST",
//	 "path":"/chat","status":200,"latency_ms":412,"request_id":"...","client_id":"10.0.0.1"}
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		slog.DebugContext(r.Context(), "request started",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(rw, r)

		status := rw.status(r)
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}

		slog.Log(r.Context(), level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"user_agent", r.UserAgent(),
		)
	})
}

// MetricsMiddleware records the served request under route, which should be
// the registered pattern rather than the raw path.
func MetricsMiddleware(c *metrics.Collector, route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)
			c.RecordHTTPRequest(route, rw.status(r), time.Since(start))
		})
	}
}
