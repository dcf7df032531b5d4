package tracing

import (
	"crypto/sha256"
	"encoding/hex"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Custom attribute keys use the "gateway.*" namespace.
const (
	AttrRoute     = "gateway.route"
	AttrKind      = "gateway.kind"
	AttrModel     = "gateway.model"
	AttrStream    = "gateway.stream"
	AttrClient    = "gateway.client_hash"
	AttrRequestID = "gateway.request_id"
	AttrOutcome   = "gateway.outcome"

	AttrRateLimitRemaining = "gateway.ratelimit.remaining"

	AttrTokensPrompt     = "gateway.tokens.prompt"
	AttrTokensCompletion = "gateway.tokens.completion"
	AttrTokensTotal      = "gateway.tokens.total"
	AttrTokensEstimated  = "gateway.tokens.estimated"

	AttrChunks = "gateway.relay.chunks"

	AttrErrorKind = "gateway.error.kind"
)

// ClientHash returns a short stable digest of a client identity so spans
// can be correlated per client without exporting addresses.
func ClientHash(clientID string) string {
	sum := sha256.Sum256([]byte(clientID))
	return hex.EncodeToString(sum[:8])
}

// DispatchAttributes returns the start attributes of a dispatch span.
func DispatchAttributes(route, kind, model, clientID, requestID string, stream bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRoute, route),
		attribute.String(AttrKind, kind),
		attribute.String(AttrModel, model),
		attribute.Bool(AttrStream, stream),
		attribute.String(AttrClient, ClientHash(clientID)),
	}
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	return attrs
}

// SetTokenAttributes sets token count attributes on a span.
func SetTokenAttributes(span trace.Span, promptTokens, completionTokens int, estimated bool) {
	span.SetAttributes(
		attribute.Int(AttrTokensPrompt, promptTokens),
		attribute.Int(AttrTokensCompletion, completionTokens),
		attribute.Int(AttrTokensTotal, promptTokens+completionTokens),
		attribute.Bool(AttrTokensEstimated, estimated),
	)
}

// SetOutcome records the dispatch outcome. A non-nil err marks the span
// failed under kind; the error text is the internal cause and never
// leaves the process except through the trace exporter.
func SetOutcome(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetAttributes(attribute.String(AttrErrorKind, outcome))
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
}
