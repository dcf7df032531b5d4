package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"mercator-hq/gateway/pkg/providers"
)

const maxEventSize = 1024 * 1024

// streamReader reads Server-Sent Events from an OpenAI streaming response.
// It emits one chunk per non-empty delta and a single final chunk once the
// upstream signals completion.
type streamReader struct {
	provider string
	resp     *http.Response
	scanner  *bufio.Scanner

	// cancel releases the per-stream deadline.
	cancel context.CancelFunc

	index        int
	model        string
	finishReason string
	usage        *providers.TokenUsage
	finished     bool
	done         bool

	// Close may run concurrently with a blocked Read to abort it.
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

var _ providers.StreamReader = (*streamReader)(nil)

func newStreamReader(name string, resp *http.Response, cancel context.CancelFunc) *streamReader {
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	return &streamReader{
		provider: name,
		resp:     resp,
		scanner:  scanner,
		cancel:   cancel,
	}
}

// Read reads the next chunk from the stream.
// Returns nil, io.EOF after the final chunk has been returned.
func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if s.done || s.closed.Load() {
		return nil, io.EOF
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				if s.closed.Load() {
					return nil, io.EOF
				}
				return nil, &providers.StreamError{
					Provider: s.provider,
					Message:  "failed to read stream",
					Cause:    err,
				}
			}
			if s.finished {
				return s.final(), nil
			}
			return nil, &providers.StreamError{
				Provider: s.provider,
				Message:  "stream ended before completion",
			}
		}

		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			// Blank separators, comments, event and id fields.
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if data == "[DONE]" {
			return s.final(), nil
		}

		var event StreamResponse
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return nil, &providers.ParseError{
				Provider:    s.provider,
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream chunk: %w", err),
			}
		}

		if event.Model != "" {
			s.model = event.Model
		}
		delta, finishReason, usage := transformStreamChunk(&event)
		if usage != nil {
			s.usage = usage
		}
		if finishReason != "" {
			s.finishReason = finishReason
			s.finished = true
		}
		if delta == "" {
			continue
		}

		chunk := &providers.StreamChunk{
			Index: s.index,
			Delta: delta,
			Model: s.model,
		}
		s.index++
		return chunk, nil
	}
}

// final builds the terminating chunk and marks the stream done.
func (s *streamReader) final() *providers.StreamChunk {
	s.done = true
	reason := s.finishReason
	if reason == "" {
		reason = providers.FinishReasonStop
	}
	return &providers.StreamChunk{
		Index:        s.index,
		Final:        true,
		FinishReason: reason,
		Model:        s.model,
		Usage:        s.usage,
	}
}

// Close closes the response body and releases the stream deadline.
// It is safe to call more than once and concurrently with Read.
func (s *streamReader) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err := s.resp.Body.Close()
		if s.cancel != nil {
			s.cancel()
		}
		if !errors.Is(err, context.Canceled) {
			s.closeErr = err
		}
	})
	return s.closeErr
}
