// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
// The server applies the shared chain outermost first:
//
//	handler = Recovery(RequestID(Client(Logging(CORS(Tracing(mux))))))
//
// RequestID and Client run before Logging so every log line written for a
// request, including the completion line, carries request_id, client_id and
// route. Recovery sits outside everything and still finds those fields when
// it writes the internal_error body.
//
// Two middlewares are applied per route instead of globally:
//   - MetricsMiddleware: labels by the registered route, never the raw path
//   - TimeoutMiddleware: request deadline for the buffered completion routes
//
// The streaming route gets no TimeoutMiddleware. Its lifetime is bounded by
// the upstream stream timeout instead.
//
// # Request ID
//
// RequestIDMiddleware keeps a client-supplied X-Request-ID of up to 128 bytes
// and otherwise generates a UUID v4. The ID is echoed in the response header
// and stored with logging.WithRequestID.
//
// # Client identity
//
// ClientMiddleware derives the rate-limit identity from the peer address.
// When forwarded headers are trusted, the first X-Forwarded-For hop wins.
//
// # Logging
//
// LoggingMiddleware writes one "request completed" line per request at INFO,
// WARN for 4xx and ERROR for 5xx:
//
//	{"time":"...","level":"WARN","msg":"request completed","method":"POST",
//	 "path":"/chat","status":429,"latency_ms":3,"request_id":"...","client_id":"10.0.0.1"}
//
// A request whose client went away before anything was written is logged
// with status 499.
//
// # CORS
//
//	server:
//	  cors:
//	    enabled: true
//	    allowed_origins: ["https://app.example.com"]
//	    allowed_methods: ["GET", "POST", "OPTIONS"]
//	    exposed_headers: ["X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"]
//	    max_age: 3600
//
// Preflight requests are answered with 204 and never reach the handler.
//
// # Timeout
//
// TimeoutMiddleware only attaches a deadline. The handler keeps ownership of
// the response writer, and the dispatcher maps an expired deadline to an
// upstream_timeout error.
package middleware
