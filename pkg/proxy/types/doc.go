// Package types defines the JSON bodies of the gateway's HTTP API.
//
// Request types:
//   - CompletionRequest: body of /chat, /text, /conversation and /advanced/stream
//   - HistoryMessage: one prior turn of a conversation
//
// Response types:
//   - CompletionResponse: non-streaming completion result
//   - StreamFrame: one Server-Sent Event of /advanced/stream
//   - InfoResponse, ModelsResponse: service info and model listing
//
// Error types:
//   - ErrorResponse: {"error":{"type","message","param","retry_after"}}
//
// Example stream event:
//
//	data: {"delta":{"content":"Hello"},"index":0,"finish_reason":null}
package types
