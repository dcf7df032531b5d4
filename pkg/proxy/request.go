package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"mercator-hq/gateway/pkg/gateway"
	"mercator-hq/gateway/pkg/providers"
	"mercator-hq/gateway/pkg/proxy/types"
)

const (
	// DefaultMaxBodyBytes is the request body limit when none is configured.
	DefaultMaxBodyBytes = 1 << 20

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"

	// ForwardedForHeader carries the client chain behind a proxy.
	ForwardedForHeader = "X-Forwarded-For"
)

// DecodeCompletionRequest reads a JSON completion body of at most maxBytes.
// Malformed or oversized bodies are reported as validation errors with
// param "body".
func DecodeCompletionRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (*types.CompletionRequest, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	body := http.MaxBytesReader(w, r.Body, maxBytes)
	defer body.Close()

	var req types.CompletionRequest
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, gateway.NewValidationError("body",
				fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBytes))
		case errors.Is(err, io.EOF):
			return nil, gateway.NewValidationError("body", "request body is required")
		default:
			return nil, gateway.NewValidationError("body", "request body is not valid JSON")
		}
	}
	if dec.More() {
		return nil, gateway.NewValidationError("body", "request body must contain a single JSON object")
	}
	return &req, nil
}

// ToGatewayRequest converts a decoded body into a dispatcher request.
func ToGatewayRequest(route gateway.Route, body *types.CompletionRequest, clientID, requestID string) *gateway.Request {
	req := &gateway.Request{
		Route:       route,
		ClientID:    clientID,
		RequestID:   requestID,
		Model:       body.Model,
		Temperature: body.Temperature,
		MaxTokens:   body.MaxTokens,
	}

	switch route {
	case gateway.RouteText:
		req.Prompt = body.Prompt
	case gateway.RouteConversation:
		req.Message = body.Message
		req.History = make([]providers.Message, len(body.ConversationHistory))
		for i, m := range body.ConversationHistory {
			req.History[i] = providers.Message{Role: m.Role, Content: m.Content}
		}
	default:
		req.Message = body.Message
	}
	return req
}

// ClientIP returns the rate-limit identity of r: the remote IP, or the
// first X-Forwarded-For hop when trustForwarded is set.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if fwd := r.Header.Get(ForwardedForHeader); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
