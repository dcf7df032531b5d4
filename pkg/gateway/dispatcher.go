package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/gateway/pkg/limits/ratelimit"
	"mercator-hq/gateway/pkg/processing/tokens"
	"mercator-hq/gateway/pkg/providers"
	"mercator-hq/gateway/pkg/relay"
	"mercator-hq/gateway/pkg/telemetry/metrics"
	"mercator-hq/gateway/pkg/telemetry/tracing"
	"mercator-hq/gateway/pkg/usage"
)

// StatusClientClosed is recorded for requests the caller abandoned.
const StatusClientClosed = 499

// UsageRecorder receives one record per finished request.
type UsageRecorder interface {
	Record(ctx context.Context, rec *usage.Record)
}

// Options configures a Dispatcher.
type Options struct {
	// Provider is the upstream adapter. Required.
	Provider providers.Provider

	// Limiter admits requests per client. Nil disables rate limiting.
	Limiter ratelimit.Limiter

	Defaults Defaults
	Relay    relay.Options

	// Estimator counts tokens when the upstream reports no usage.
	// Defaults to the simple estimator.
	Estimator tokens.Estimator

	// Optional collaborators.
	Recorder UsageRecorder
	Metrics  *metrics.Collector
	Tracer   *tracing.Tracer
	Logger   *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Dispatcher runs the request lifecycle: validate, rate check, dispatch.
// It is safe for concurrent use.
type Dispatcher struct {
	provider  providers.Provider
	limiter   ratelimit.Limiter
	defaults  Defaults
	relayOpts relay.Options
	estimator tokens.Estimator
	recorder  UsageRecorder
	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Provider == nil {
		return nil, errors.New("gateway: provider is required")
	}
	if opts.Estimator == nil {
		opts.Estimator = tokens.NewSimpleEstimator(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Dispatcher{
		provider:  opts.Provider,
		limiter:   opts.Limiter,
		defaults:  opts.Defaults,
		relayOpts: opts.Relay,
		estimator: opts.Estimator,
		recorder:  opts.Recorder,
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		logger:    opts.Logger,
		now:       opts.Now,
	}, nil
}

// Models returns the supported model catalog.
func (d *Dispatcher) Models() providers.ModelCatalog {
	return d.provider.Models()
}

// Completion is the result of a non-streaming dispatch.
type Completion struct {
	Text         string
	Model        string
	TokensUsed   int
	FinishReason string
	Usage        *providers.TokenUsage

	// Estimated is set when Usage was computed locally.
	Estimated bool

	// Decision is the admission decision; nil when rate limiting is off.
	Decision *ratelimit.Decision
}

// call is the state of one request in flight.
type call struct {
	req      *Request
	creq     *providers.CompletionRequest
	life     *lifecycle
	start    time.Time
	ctx      context.Context
	span     trace.Span
	decision *ratelimit.Decision
}

// result describes how a call ended.
type result struct {
	outcome   string
	status    int
	err       *Error
	usage     *providers.TokenUsage
	estimated bool
	chunks    int
}

// Complete validates, rate checks and forwards req, returning the upstream
// completion. Every failure is an *Error.
func (d *Dispatcher) Complete(ctx context.Context, req *Request) (*Completion, error) {
	c, err := d.admit(ctx, req)
	if err != nil {
		return nil, err
	}

	c.life.to(StateDispatched)
	upstreamStart := d.now()
	res, err := d.provider.Complete(c.ctx, c.creq)
	d.observeUpstream(c, upstreamStart, err)
	if err != nil {
		return nil, d.upstreamFailed(c, err)
	}

	tokenUsage, estimated := res.Usage, false
	if tokenUsage == nil {
		tokenUsage, estimated = tokens.Usage(d.estimator, c.creq, res.Text), true
	}

	c.life.to(StateCompleted)
	d.finish(c, result{
		outcome:   usage.OutcomeCompleted,
		status:    http.StatusOK,
		usage:     tokenUsage,
		estimated: estimated,
	})

	model := res.Model
	if model == "" {
		model = c.creq.Model
	}
	return &Completion{
		Text:         res.Text,
		Model:        model,
		TokensUsed:   tokenUsage.TotalTokens,
		FinishReason: res.FinishReason,
		Usage:        tokenUsage,
		Estimated:    estimated,
		Decision:     c.decision,
	}, nil
}

// OpenStream validates, rate checks and opens an upstream stream. The
// caller must either Relay or Close the returned session.
func (d *Dispatcher) OpenStream(ctx context.Context, req *Request) (*Session, error) {
	c, err := d.admit(ctx, req)
	if err != nil {
		return nil, err
	}

	c.life.to(StateDispatched)
	upstreamStart := d.now()
	reader, err := d.provider.Stream(c.ctx, c.creq)
	d.observeUpstream(c, upstreamStart, err)
	if err != nil {
		return nil, d.upstreamFailed(c, err)
	}

	d.metrics.StreamStarted()
	return &Session{
		Model:    c.creq.Model,
		Decision: c.decision,
		d:        d,
		c:        c,
		reader:   reader,
	}, nil
}

// admit runs validation and the single rate check. On success the call is
// Admitted; otherwise it has been finished and the *Error is returned.
func (d *Dispatcher) admit(ctx context.Context, req *Request) (*call, error) {
	c := &call{req: req, life: newLifecycle(), start: d.now()}
	c.ctx, c.span = d.tracer.Start(ctx, "gateway.dispatch", trace.WithSpanKind(trace.SpanKindInternal))

	creq, err := Validate(req, d.defaults, d.provider.Models())
	if err != nil {
		c.life.to(StateFailed)
		gerr := As(err)
		return nil, d.finish(c, result{outcome: usage.OutcomeInvalid, status: gerr.StatusCode(), err: gerr})
	}
	c.creq = creq
	c.span.SetAttributes(tracing.DispatchAttributes(
		string(req.Route), string(creq.Kind), creq.Model, req.ClientID, req.RequestID, req.Route.Streaming(),
	)...)
	c.life.to(StateValidated)

	if d.limiter != nil {
		decision, err := d.limiter.Check(c.ctx, req.ClientID)
		if err != nil {
			c.life.to(StateFailed)
			gerr := NewInternalError(err)
			return nil, d.finish(c, result{outcome: usage.OutcomeFailed, status: gerr.StatusCode(), err: gerr})
		}
		c.decision = &decision
		c.span.SetAttributes(attribute.Int(tracing.AttrRateLimitRemaining, decision.Remaining))
	}
	c.life.to(StateRateChecked)

	if c.decision != nil && !c.decision.Allowed {
		c.life.to(StateRejected)
		gerr := &Error{
			Kind:       KindRateLimited,
			Message:    fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", c.decision.RetryAfterSeconds()),
			RetryAfter: c.decision.RetryAfter,
			Decision:   c.decision,
		}
		return nil, d.finish(c, result{outcome: usage.OutcomeRejected, status: gerr.StatusCode(), err: gerr})
	}

	c.life.to(StateAdmitted)
	return c, nil
}

// observeUpstream feeds upstream call metrics and provider health.
func (d *Dispatcher) observeUpstream(c *call, start time.Time, err error) {
	name := d.provider.Name()
	if err == nil {
		d.metrics.RecordUpstreamCall(name, c.creq.Model, d.now().Sub(start))
	} else if !errors.Is(err, context.Canceled) {
		d.metrics.RecordUpstreamError(name, string(FromUpstream(err).Kind))
	}
	d.metrics.UpdateProviderHealth(name, d.provider.HealthCheck(c.ctx) == nil)
}

// upstreamFailed finishes a dispatched call whose upstream call failed.
func (d *Dispatcher) upstreamFailed(c *call, err error) error {
	c.life.to(StateFailed)
	gerr := FromUpstream(err)
	gerr.Decision = c.decision

	res := result{outcome: usage.OutcomeFailed, status: gerr.StatusCode(), err: gerr}
	if gerr.Canceled() {
		res.outcome, res.status = usage.OutcomeCanceled, StatusClientClosed
	}
	return d.finish(c, res)
}

// finish records the end of a call in metrics, the span, the log and the
// usage ledger. It returns res.err for convenience.
func (d *Dispatcher) finish(c *call, res result) *Error {
	elapsed := d.now().Sub(c.start)

	var route, model, clientID, requestID string
	var stream bool
	if c.req != nil {
		route, model = string(c.req.Route), c.req.Model
		clientID, requestID = c.req.ClientID, c.req.RequestID
		stream = c.req.Route.Streaming()
	}
	if c.creq != nil {
		model = c.creq.Model
	}

	d.metrics.RecordDispatch(route, model, res.outcome, elapsed)
	if res.usage != nil {
		d.metrics.RecordTokens(model, res.usage.PromptTokens, res.usage.CompletionTokens, res.estimated)
		tracing.SetTokenAttributes(c.span, res.usage.PromptTokens, res.usage.CompletionTokens, res.estimated)
	}
	if stream && res.chunks > 0 {
		c.span.SetAttributes(attribute.Int(tracing.AttrChunks, res.chunks))
	}

	attrs := []slog.Attr{
		slog.String("route", route),
		slog.String("model", model),
		slog.String("outcome", res.outcome),
		slog.Int("status", res.status),
		slog.Int64("latency_ms", elapsed.Milliseconds()),
	}
	level := slog.LevelInfo
	if res.err != nil {
		cause := error(res.err)
		if res.err.Cause != nil {
			cause = res.err.Cause
		}
		tracing.SetOutcome(c.span, string(res.err.Kind), cause)
		c.span.SetAttributes(attribute.String(tracing.AttrOutcome, res.outcome))

		attrs = append(attrs, slog.String("error_kind", string(res.err.Kind)), slog.Any("error", cause))
		switch res.err.Kind {
		case KindValidation, KindRateLimited:
		case KindInternal:
			level = slog.LevelError
		default:
			level = slog.LevelWarn
		}
		if res.err.Canceled() {
			level = slog.LevelInfo
		}
	} else {
		tracing.SetOutcome(c.span, res.outcome, nil)
	}
	if res.usage != nil {
		attrs = append(attrs, slog.Int("tokens_used", res.usage.TotalTokens), slog.Bool("tokens_estimated", res.estimated))
	}
	if stream {
		attrs = append(attrs, slog.Int("chunks", res.chunks))
	}
	d.logger.LogAttrs(c.ctx, level, "request dispatched", attrs...)
	c.span.End()

	if d.recorder != nil {
		rec := &usage.Record{
			ID:         uuid.New().String(),
			Timestamp:  c.start,
			RequestID:  requestID,
			ClientID:   clientID,
			Route:      route,
			Model:      model,
			Stream:     stream,
			Outcome:    res.outcome,
			StatusCode: res.status,
			Chunks:     res.chunks,
			LatencyMS:  elapsed.Milliseconds(),
		}
		if res.err != nil {
			rec.ErrorKind = string(res.err.Kind)
		}
		if res.usage != nil {
			rec.PromptTokens = res.usage.PromptTokens
			rec.CompletionTokens = res.usage.CompletionTokens
			rec.TokensUsed = res.usage.TotalTokens
			rec.TokensEstimated = res.estimated
		}
		d.recorder.Record(context.WithoutCancel(c.ctx), rec)
	}

	return res.err
}

// Session is an admitted stream awaiting relay.
type Session struct {
	// Model is the resolved upstream model.
	Model string

	// Decision is the admission decision; nil when rate limiting is off.
	Decision *ratelimit.Decision

	d      *Dispatcher
	c      *call
	reader providers.StreamReader
	done   bool
}

// Relay copies the upstream stream into sink until it ends, fails or ctx
// is done. The upstream connection is always released on return. Source
// failures reach the sink through Fail and are returned reduced with
// FromRelay.
func (s *Session) Relay(ctx context.Context, sink relay.Sink) (relay.Summary, error) {
	if s.done {
		return relay.Summary{}, NewInternalError(errors.New("stream session already used"))
	}
	s.done = true
	d, c := s.d, s.c

	summary, err := relay.New(s.reader, d.relayOpts).Run(ctx, sink)
	if err != nil {
		gerr := FromRelay(err)
		gerr.Decision = c.decision

		res := result{outcome: usage.OutcomeInterrupted, status: http.StatusOK, err: gerr, chunks: summary.Chunks}
		var ierr *relay.InterruptedError
		switch {
		case errors.Is(err, context.Canceled) || errors.As(err, new(*relay.SinkError)):
			res.outcome, res.status = usage.OutcomeCanceled, StatusClientClosed
		case errors.As(err, &ierr) && ierr.Delivered == 0:
			res.outcome, res.status = usage.OutcomeFailed, gerr.StatusCode()
		}
		if res.outcome != usage.OutcomeCanceled {
			d.metrics.RecordUpstreamError(d.provider.Name(), string(gerr.Kind))
		}

		d.metrics.StreamFinished(res.outcome, summary.Chunks)
		c.life.to(StateFailed)
		return summary, d.finish(c, res)
	}

	tokenUsage, estimated := summary.Usage, false
	if tokenUsage == nil {
		tokenUsage, estimated = tokens.Usage(d.estimator, c.creq, summary.Text), true
	}

	d.metrics.StreamFinished(usage.OutcomeCompleted, summary.Chunks)
	c.life.to(StateCompleted)
	d.finish(c, result{
		outcome:   usage.OutcomeCompleted,
		status:    http.StatusOK,
		usage:     tokenUsage,
		estimated: estimated,
		chunks:    summary.Chunks,
	})
	return summary, nil
}

// Close abandons a session that was never relayed.
func (s *Session) Close() error {
	if s.done {
		return nil
	}
	s.done = true

	err := s.reader.Close()
	s.d.metrics.StreamFinished(usage.OutcomeCanceled, 0)
	s.c.life.to(StateFailed)
	s.d.finish(s.c, result{
		outcome: usage.OutcomeCanceled,
		status:  StatusClientClosed,
		err:     &Error{Kind: KindInternal, Message: msgCanceled, Cause: context.Canceled, Decision: s.c.decision},
	})
	return err
}
