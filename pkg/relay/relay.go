package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"mercator-hq/gateway/pkg/providers"
)

// DefaultBufferSize is the producer channel capacity when none is set.
const DefaultBufferSize = 8

// ErrIncomplete is reported when a source ends without a final chunk.
var ErrIncomplete = errors.New("stream ended before completion")

// Source yields upstream chunks. providers.StreamReader satisfies it.
type Source interface {
	Read(ctx context.Context) (*providers.StreamChunk, error)
	Close() error
}

// Chunk is one chunk as delivered to a sink.
type Chunk struct {
	Index        int
	Delta        string
	Final        bool
	FinishReason string
}

// Summary describes a finished relay.
type Summary struct {
	// Chunks is the number of chunks delivered to the sink, final included.
	Chunks int

	// Text is the concatenated delta text.
	Text string

	FinishReason string
	Model        string

	// Usage is set when the upstream reported it.
	Usage *providers.TokenUsage

	// Completed is true when the sink received End.
	Completed bool
}

// Sink receives relayed chunks. Implementations need not be safe for
// concurrent use; all calls come from the goroutine running Run.
type Sink interface {
	// Chunk writes one chunk.
	Chunk(ctx context.Context, c Chunk) error

	// End marks a cleanly completed stream.
	End(ctx context.Context, s Summary) error

	// Fail marks a stream interrupted by err.
	Fail(ctx context.Context, err error) error
}

// InterruptedError is the error passed to Sink.Fail and returned by Run
// when the source fails.
type InterruptedError struct {
	// Delivered is the number of chunks the sink received before the failure.
	Delivered int
	Err       error
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("stream interrupted after %d chunks: %v", e.Delivered, e.Err)
}

func (e *InterruptedError) Unwrap() error {
	return e.Err
}

// SinkError wraps a failure returned by the sink.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink write failed: %v", e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Options configures a Relay.
type Options struct {
	// BufferSize bounds the chunks read ahead of the sink. Default: 8
	BufferSize int
}

// Relay copies one stream. It is single use.
type Relay struct {
	src    Source
	buffer int

	closeOnce sync.Once
}

// New creates a relay for src.
func New(src Source, opts Options) *Relay {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	return &Relay{src: src, buffer: opts.BufferSize}
}

type event struct {
	chunk *providers.StreamChunk
	err   error
}

// Run relays until the stream ends, fails or ctx is done. It always closes
// the source before returning. The returned error is nil on clean
// completion, an *InterruptedError for a source failure, a *SinkError when
// the sink rejected a write, or the context error.
func (r *Relay) Run(ctx context.Context, sink Sink) (Summary, error) {
	pctx, cancel := context.WithCancel(ctx)
	events := make(chan event, r.buffer)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.produce(pctx, events)
	}()

	var (
		summary Summary
		text    strings.Builder
	)

	// finish aborts the producer, even one blocked in Read, and waits for it.
	finish := func() Summary {
		cancel()
		r.closeSource()
		wg.Wait()
		summary.Text = text.String()
		return summary
	}

	for {
		var ev event
		var ok bool
		select {
		case <-ctx.Done():
			return finish(), ctx.Err()
		case ev, ok = <-events:
		}

		// A closed channel without a terminal event means the producer was
		// canceled, which only happens through ctx.
		if err := ctx.Err(); err != nil || !ok {
			if err == nil {
				err = &InterruptedError{Delivered: summary.Chunks, Err: ErrIncomplete}
			}
			return finish(), err
		}

		if ev.err != nil {
			ierr := &InterruptedError{Delivered: summary.Chunks, Err: ev.err}
			result := finish()
			if err := sink.Fail(ctx, ierr); err != nil {
				return result, &SinkError{Err: err}
			}
			return result, ierr
		}

		c := ev.chunk
		if c.Model != "" {
			summary.Model = c.Model
		}
		if c.Usage != nil {
			summary.Usage = c.Usage
		}
		text.WriteString(c.Delta)

		out := Chunk{
			Index:        summary.Chunks,
			Delta:        c.Delta,
			Final:        c.Final,
			FinishReason: c.FinishReason,
		}
		if err := sink.Chunk(ctx, out); err != nil {
			return finish(), &SinkError{Err: err}
		}
		summary.Chunks++

		if c.Final {
			summary.FinishReason = c.FinishReason
			summary.Completed = true
			result := finish()
			if err := sink.End(ctx, result); err != nil {
				result.Completed = false
				return result, &SinkError{Err: err}
			}
			return result, nil
		}
	}
}

// produce reads the source until a final chunk or an error, which is
// always the last event sent.
func (r *Relay) produce(ctx context.Context, events chan<- event) {
	defer close(events)
	defer r.closeSource()

	send := func(ev event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		chunk, err := r.src.Read(ctx)
		switch {
		case err == io.EOF:
			send(event{err: ErrIncomplete})
			return
		case err != nil:
			send(event{err: err})
			return
		case chunk == nil:
			continue
		}

		if !send(event{chunk: chunk}) || chunk.Final {
			return
		}
	}
}

func (r *Relay) closeSource() {
	r.closeOnce.Do(func() {
		_ = r.src.Close()
	})
}
