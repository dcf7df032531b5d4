package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"mercator-hq/gateway/pkg/limits/ratelimit"
	"mercator-hq/gateway/pkg/providers"
	"mercator-hq/gateway/pkg/relay"
)

// Kind classifies a gateway failure. Its string form is the "type" of the
// error body returned to callers.
type Kind string

const (
	// KindValidation is malformed or out-of-range input. It never reaches
	// the rate limiter or the upstream.
	KindValidation Kind = "validation_error"

	// KindRateLimited is a denied admission.
	KindRateLimited Kind = "rate_limited"

	// KindUpstreamAuth is a credential rejected by the upstream.
	KindUpstreamAuth Kind = "upstream_auth_error"

	// KindUpstreamTimeout is an upstream call that exceeded its deadline.
	KindUpstreamTimeout Kind = "upstream_timeout"

	// KindUpstreamUnavailable is a transport, server or quota failure.
	KindUpstreamUnavailable Kind = "upstream_unavailable"

	// KindStreamInterrupted is a stream that failed after delivering chunks.
	// Partial content is not authoritative.
	KindStreamInterrupted Kind = "stream_interrupted"

	// KindInternal is a local fault.
	KindInternal Kind = "internal_error"
)

// StatusCode returns the HTTP status for k. KindStreamInterrupted only
// occurs after the response status has been sent; it maps to 502 for
// completeness.
func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstreamAuth, KindStreamInterrupted:
		return http.StatusBadGateway
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Generic caller-facing messages. Upstream detail never appears in them.
const (
	msgUpstreamAuth        = "The upstream provider rejected the gateway's credentials."
	msgUpstreamTimeout     = "The upstream provider did not respond in time. Please retry later."
	msgUpstreamUnavailable = "The upstream provider is unavailable. Please retry later."
	msgUpstreamQuota       = "The upstream provider is over capacity. Please retry later."
	msgUpstreamRejected    = "The upstream provider rejected the request parameters."
	msgUpstreamInvalid     = "The upstream provider returned an invalid response."
	msgStreamInterrupted   = "The stream was interrupted. Partial content is incomplete."
	msgInternal            = "An internal error occurred. Please try again later."
	msgCanceled            = "The request was canceled."
)

// Error is a failure reduced to the gateway taxonomy. Message and Param are
// safe to return to the caller; Cause is kept for logging only.
type Error struct {
	Kind    Kind
	Message string

	// Param names the offending request field for validation errors.
	Param string

	// RetryAfter is set for rate-limited rejections, and for upstream quota
	// failures when the upstream sent Retry-After.
	RetryAfter time.Duration

	// Decision is the admission decision when the request was rate checked.
	Decision *ratelimit.Decision

	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status for the error's kind.
func (e *Error) StatusCode() int {
	return e.Kind.StatusCode()
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds.
func (e *Error) RetryAfterSeconds() int {
	return ratelimit.Decision{RetryAfter: e.RetryAfter}.RetryAfterSeconds()
}

// Canceled reports whether the failure was caused by the caller going away.
func (e *Error) Canceled() bool {
	return errors.Is(e.Cause, context.Canceled)
}

// NewValidationError creates a validation error for param.
func NewValidationError(param, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Param: param}
}

// NewInternalError wraps a local fault.
func NewInternalError(cause error) *Error {
	return &Error{Kind: KindInternal, Message: msgInternal, Cause: cause}
}

// As returns err as an *Error, reducing it with FromUpstream when it is not
// one already.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}
	return FromUpstream(err)
}

// FromUpstream reduces an adapter error to the taxonomy.
func FromUpstream(err error) *Error {
	var (
		validationErr *providers.ValidationError
		authErr       *providers.AuthError
		quotaErr      *providers.RateLimitError
		timeoutErr    *providers.TimeoutError
		parseErr      *providers.ParseError
		streamErr     *providers.StreamError
		providerErr   *providers.ProviderError
	)

	switch {
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindInternal, Message: msgCanceled, Cause: err}

	case errors.As(err, &validationErr):
		// Local to the adapter, so the message carries no upstream detail.
		return &Error{Kind: KindValidation, Message: validationErr.Message, Param: validationErr.Field, Cause: err}

	case errors.As(err, &authErr):
		return &Error{Kind: KindUpstreamAuth, Message: msgUpstreamAuth, Cause: err}

	case errors.As(err, &quotaErr):
		return &Error{Kind: KindUpstreamUnavailable, Message: msgUpstreamQuota, RetryAfter: quotaErr.RetryAfter, Cause: err}

	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindUpstreamTimeout, Message: msgUpstreamTimeout, Cause: err}

	case errors.As(err, &parseErr):
		return &Error{Kind: KindUpstreamUnavailable, Message: msgUpstreamInvalid, Cause: err}

	case errors.As(err, &streamErr), errors.Is(err, relay.ErrIncomplete):
		return &Error{Kind: KindUpstreamUnavailable, Message: msgUpstreamUnavailable, Cause: err}

	case errors.As(err, &providerErr):
		if providerErr.StatusCode >= 400 && providerErr.StatusCode < 500 {
			return &Error{Kind: KindValidation, Message: msgUpstreamRejected, Cause: err}
		}
		return &Error{Kind: KindUpstreamUnavailable, Message: msgUpstreamUnavailable, Cause: err}

	default:
		return NewInternalError(err)
	}
}

// FromRelay reduces a relay failure. A source failure after at least one
// delivered chunk is KindStreamInterrupted; before any chunk it keeps the
// underlying kind.
func FromRelay(err error) *Error {
	if err == nil {
		return nil
	}

	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr
	}

	var ierr *relay.InterruptedError
	if errors.As(err, &ierr) {
		if ierr.Delivered > 0 {
			return &Error{Kind: KindStreamInterrupted, Message: msgStreamInterrupted, Cause: err}
		}
		reduced := FromUpstream(ierr.Err)
		reduced.Cause = err
		return reduced
	}

	var sinkErr *relay.SinkError
	if errors.As(err, &sinkErr) {
		return &Error{Kind: KindStreamInterrupted, Message: msgStreamInterrupted, Cause: err}
	}

	return FromUpstream(err)
}
