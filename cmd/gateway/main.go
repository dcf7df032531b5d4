// Gateway is an HTTP gateway in front of an OpenAI-compatible LLM API.
//
// It provides:
//   - Chat, text and conversation completion endpoints
//   - Chat completions relayed as Server-Sent Events
//   - Per-client fixed-window rate limiting (memory or Redis)
//   - A content-free usage ledger (memory or SQLite)
//   - Prometheus metrics, OpenTelemetry tracing and health probes
//
// Usage:
//
//	# Start the server with config.yaml from the working directory
//	gateway run
//
//	# Start with a custom configuration file
//	gateway run --config /etc/gateway/config.yaml
//
//	# Check a configuration file
//	gateway validate --config config.yaml
//
//	# Show recent usage from the ledger
//	gateway usage --since 24h
package main

func main() {
	Execute()
}
