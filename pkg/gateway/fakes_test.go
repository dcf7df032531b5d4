package gateway

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"mercator-hq/gateway/pkg/limits/ratelimit"
	"mercator-hq/gateway/pkg/limits/storage"
	"mercator-hq/gateway/pkg/providers"
	"mercator-hq/gateway/pkg/relay"
	"mercator-hq/gateway/pkg/usage"
)

var testCatalog = providers.ModelCatalog{
	Chat: []string{"gpt-3.5-turbo", "gpt-4"},
	Text: []string{"gpt-3.5-turbo-instruct"},
}

var testDefaults = Defaults{
	ChatModel:       "gpt-3.5-turbo",
	TextModel:       "gpt-3.5-turbo-instruct",
	Temperature:     0.7,
	MaxTokens:       150,
	StreamMaxTokens: 200,
}

// fakeProvider records calls and replays a configured result.
type fakeProvider struct {
	mu            sync.Mutex
	completeCalls int
	streamCalls   int
	lastRequest   *providers.CompletionRequest

	result    *providers.CompletionResult
	err       error
	streamErr error
	stream    func() *fakeStream
	healthErr error
}

func (p *fakeProvider) Complete(_ context.Context, req *providers.CompletionRequest) (*providers.CompletionResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completeCalls++
	p.lastRequest = req
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

func (p *fakeProvider) Stream(_ context.Context, req *providers.CompletionRequest) (providers.StreamReader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.streamCalls++
	p.lastRequest = req
	if p.streamErr != nil {
		return nil, p.streamErr
	}
	return p.stream(), nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completeCalls + p.streamCalls
}

func (p *fakeProvider) Models() providers.ModelCatalog    { return testCatalog }
func (p *fakeProvider) HealthCheck(context.Context) error { return p.healthErr }
func (p *fakeProvider) Name() string                      { return "fake" }
func (p *fakeProvider) Close() error                      { return nil }

func (p *fakeProvider) request() *providers.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

// fakeStream yields deltas, then either a final chunk or failAfter's error.
type fakeStream struct {
	deltas    []string
	failAfter int // fail once this many deltas were read; -1 never
	err       error
	usage     *providers.TokenUsage

	mu     sync.Mutex
	read   int
	closed bool
}

func newStream(deltas ...string) func() *fakeStream {
	return func() *fakeStream {
		return &fakeStream{deltas: deltas, failAfter: -1}
	}
}

func failingStream(failAfter int, err error, deltas ...string) func() *fakeStream {
	return func() *fakeStream {
		return &fakeStream{deltas: deltas, failAfter: failAfter, err: err}
	}
}

func (s *fakeStream) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, io.EOF
	}
	if s.failAfter >= 0 && s.read == s.failAfter {
		return nil, s.err
	}
	if s.read < len(s.deltas) {
		c := &providers.StreamChunk{Index: s.read, Delta: s.deltas[s.read], Model: "gpt-3.5-turbo"}
		s.read++
		return c, nil
	}
	if s.read == len(s.deltas) {
		s.read++
		return &providers.StreamChunk{Index: len(s.deltas), Final: true, FinishReason: "stop", Usage: s.usage}, nil
	}
	return nil, io.EOF
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// countingLimiter counts Check calls on a real fixed-window limiter.
type countingLimiter struct {
	ratelimit.Limiter
	mu    sync.Mutex
	calls int
	err   error
}

func newCountingLimiter(limit int, clock ratelimit.Clock) *countingLimiter {
	l, err := ratelimit.NewFixedWindow(storage.NewMemoryStore(storage.MemoryConfig{}), ratelimit.Config{
		Limit:  limit,
		Window: time.Minute,
		Clock:  clock,
	})
	if err != nil {
		panic(err)
	}
	return &countingLimiter{Limiter: l}
}

func (l *countingLimiter) Check(ctx context.Context, clientID string) (ratelimit.Decision, error) {
	l.mu.Lock()
	l.calls++
	err := l.err
	l.mu.Unlock()
	if err != nil {
		return ratelimit.Decision{}, err
	}
	return l.Limiter.Check(ctx, clientID)
}

func (l *countingLimiter) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// memoryRecorder keeps usage records in order.
type memoryRecorder struct {
	mu      sync.Mutex
	records []*usage.Record
}

func (r *memoryRecorder) Record(_ context.Context, rec *usage.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *memoryRecorder) last() *usage.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return nil
	}
	return r.records[len(r.records)-1]
}

// recordingSink captures everything a relay delivers.
type recordingSink struct {
	chunks   []relay.Chunk
	ended    int
	failures []error
	chunkErr error
}

func (s *recordingSink) Chunk(_ context.Context, c relay.Chunk) error {
	if s.chunkErr != nil {
		return s.chunkErr
	}
	s.chunks = append(s.chunks, c)
	return nil
}

func (s *recordingSink) End(context.Context, relay.Summary) error {
	s.ended++
	return nil
}

func (s *recordingSink) Fail(_ context.Context, err error) error {
	s.failures = append(s.failures, err)
	return nil
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
