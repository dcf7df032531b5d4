package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"mercator-hq/gateway/pkg/gateway"
	"mercator-hq/gateway/pkg/limits/ratelimit"
	"mercator-hq/gateway/pkg/proxy/types"
)

// Rate-limit response headers.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// FormatCompletionResponse converts a dispatcher completion to the API shape.
func FormatCompletionResponse(c *gateway.Completion) *types.CompletionResponse {
	return &types.CompletionResponse{
		Response:     c.Text,
		Model:        c.Model,
		TokensUsed:   c.TokensUsed,
		FinishReason: c.FinishReason,
	}
}

// SetRateLimitHeaders writes the X-RateLimit-* headers for d. A nil
// decision writes nothing.
func SetRateLimitHeaders(h http.Header, d *ratelimit.Decision) {
	if d == nil {
		return
	}
	h.Set(HeaderRateLimitLimit, strconv.Itoa(d.Limit))
	h.Set(HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
	if !d.Reset.IsZero() {
		h.Set(HeaderRateLimitReset, strconv.FormatInt(d.Reset.Unix(), 10))
	}
	if !d.Allowed {
		h.Set(HeaderRetryAfter, strconv.Itoa(d.RetryAfterSeconds()))
	}
}

// WriteJSONResponse writes data as JSON with statusCode.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}

// WriteError writes err as a JSON error body. Rate-limit headers are added
// when the error carries an admission decision, and Retry-After when the
// error has a retry hint.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(r.Context(), w, err)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	resp, status := HandleError(err)

	if gerr := gateway.As(err); gerr != nil {
		SetRateLimitHeaders(w.Header(), gerr.Decision)
		if resp.Error.RetryAfter > 0 {
			w.Header().Set(HeaderRetryAfter, strconv.Itoa(resp.Error.RetryAfter))
		}
	}
	if status == gateway.StatusClientClosed {
		// Nobody is listening.
		return
	}

	if werr := WriteJSONResponse(w, status, resp); werr != nil {
		slog.WarnContext(ctx, "failed to write error response",
			"status", status,
			"error", werr,
		)
	}
}
