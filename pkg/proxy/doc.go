// Package proxy adapts the gateway dispatcher to HTTP.
//
// It decodes request bodies (bounded by server.max_body_bytes), derives the
// client identity used for rate limiting, writes JSON responses with
// X-RateLimit-* headers, maps gateway errors to status codes and error
// bodies, and relays streams as Server-Sent Events through SSEWriter.
//
// Subpackages:
//
//   - types: JSON request and response bodies
//   - middleware: request ID, logging, recovery, timeout and CORS
//   - handlers: the route handlers
//
// # Error body
//
//	{"error":{"type":"rate_limited","message":"Rate limit exceeded. Try again in 42 seconds.","retry_after":42}}
//
// # Stream events
//
//	data: {"delta":{"content":"Hel"},"index":0,"finish_reason":null}
//	data: {"delta":{"content":""},"index":3,"finish_reason":"stop"}
//	data: [DONE]
//
// A stream that fails after some events ends with an error event instead
// of [DONE]:
//
//	data: {"error":{"type":"stream_interrupted","message":"..."}}
package proxy
