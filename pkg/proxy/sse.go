package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/gateway/pkg/gateway"
	"mercator-hq/gateway/pkg/providers"
	"mercator-hq/gateway/pkg/proxy/types"
	"mercator-hq/gateway/pkg/relay"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("streaming not supported by response writer")

// SSEWriter relays stream chunks to an HTTP client as Server-Sent Events.
// Headers are sent with the first event, so a stream that fails before any
// chunk still gets a plain JSON error with the failure's status code.
type SSEWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
	ended   bool
}

var _ relay.Sink = (*SSEWriter)(nil)

// NewSSEWriter wraps w. It fails when w does not support flushing.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	if !canFlush(w) {
		return nil, ErrStreamingUnsupported
	}
	return &SSEWriter{w: w, rc: http.NewResponseController(w)}, nil
}

// canFlush looks for an http.Flusher through Unwrap chains without
// committing the response.
func canFlush(w http.ResponseWriter) bool {
	for {
		if _, ok := w.(http.Flusher); ok {
			return true
		}
		u, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return false
		}
		w = u.Unwrap()
	}
}

// Started reports whether the event stream headers have been sent.
func (s *SSEWriter) Started() bool {
	return s.started
}

func (s *SSEWriter) start() {
	if s.started {
		return
	}
	SetSSEHeaders(s.w)
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}

// Chunk writes one delta event. The final chunk carries its finish reason,
// "stop" unless the upstream gave another.
func (s *SSEWriter) Chunk(_ context.Context, c relay.Chunk) error {
	s.start()

	frame := types.StreamFrame{
		Delta: types.Delta{Content: c.Delta},
		Index: c.Index,
	}
	if c.Final {
		reason := c.FinishReason
		if reason == "" {
			reason = providers.FinishReasonStop
		}
		frame.FinishReason = &reason
	}
	return s.writeEvent(frame)
}

// End writes the [DONE] sentinel. It writes nothing once the stream has
// ended or failed.
func (s *SSEWriter) End(_ context.Context, _ relay.Summary) error {
	if s.ended {
		return nil
	}
	s.start()
	s.ended = true
	if _, err := fmt.Fprint(s.w, "data: [DONE]\n\n"); err != nil {
		return fmt.Errorf("failed to write SSE done marker: %w", err)
	}
	return s.flush()
}

// Fail writes a terminal error event and no [DONE]. Before any event has
// been sent it writes a JSON error response instead.
func (s *SSEWriter) Fail(ctx context.Context, err error) error {
	if s.ended {
		return nil
	}
	s.ended = true

	gerr := gateway.FromRelay(err)
	if !s.started {
		writeError(ctx, s.w, gerr)
		return nil
	}

	resp := types.NewErrorResponse(string(gerr.Kind), gerr.Message, gerr.Param, 0)
	return s.writeEvent(resp)
}

func (s *SSEWriter) writeEvent(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write SSE event: %w", err)
	}
	return s.flush()
}

func (s *SSEWriter) flush() error {
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush SSE event: %w", err)
	}
	return nil
}

// SetSSEHeaders sets the headers for a Server-Sent Events response.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}
