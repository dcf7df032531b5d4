package providers

import "context"

// Provider is the upstream client adapter.
//
// Implementations validate the model against their catalog before any
// network I/O, perform exactly one upstream attempt per call, and report
// failures with the typed errors in this package.
type Provider interface {
	// Complete performs a single blocking round trip bounded by the
	// configured timeout.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// Stream opens a streaming call. The returned reader yields chunks as the
	// upstream produces them. The caller must Close it.
	Stream(ctx context.Context, req *CompletionRequest) (StreamReader, error)

	// Models returns the supported model catalog.
	Models() ModelCatalog

	// HealthCheck reports whether recent calls succeeded.
	HealthCheck(ctx context.Context) error

	// Name returns the configured provider name.
	Name() string

	// Close releases pooled connections.
	Close() error
}

// StreamReader reads chunks from a streaming call. It is not restartable.
type StreamReader interface {
	// Read returns the next chunk. It returns io.EOF after the final chunk
	// of a cleanly completed stream, and a *StreamError (or the context
	// error) when the stream fails.
	Read(ctx context.Context) (*StreamChunk, error)

	// Close releases the upstream connection.
	Close() error
}
