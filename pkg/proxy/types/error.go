package types

// ErrorResponse is the body of every error reply and of the terminal SSE
// error event.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one failure.
type ErrorDetail struct {
	// Type is the gateway error kind, e.g. "validation_error" or
	// "rate_limited".
	Type string `json:"type"`

	// Message is safe to show to the caller. It never carries upstream
	// detail or credentials.
	Message string `json:"message"`

	// Param names the offending request field, if any.
	Param string `json:"param,omitempty"`

	// RetryAfter is the wait in whole seconds for rate-limited requests.
	RetryAfter int `json:"retry_after,omitempty"`
}

// NewErrorResponse constructs an error body.
func NewErrorResponse(errType, message, param string, retryAfter int) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Type:       errType,
			Message:    message,
			Param:      param,
			RetryAfter: retryAfter,
		},
	}
}
