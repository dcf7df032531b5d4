package providers

import (
	"time"
)

// Kind selects the upstream completion API.
type Kind string

const (
	// KindChat uses the chat completions API with role-tagged messages.
	KindChat Kind = "chat"

	// KindText uses the legacy text completions API with a single prompt.
	KindText Kind = "text"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Finish reasons.
const (
	FinishReasonStop   = "stop"
	FinishReasonLength = "length"
)

// Message represents a single message in a chat conversation.
type Message struct {
	// Role is the message sender (system, user, assistant).
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// TokenUsage contains token usage statistics for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is a provider-agnostic completion request.
// Temperature and MaxTokens are always resolved by the caller.
type CompletionRequest struct {
	// Kind selects chat or text completion.
	Kind Kind

	// Model is the upstream model identifier.
	Model string

	// Messages is the conversation for KindChat.
	Messages []Message

	// Prompt is the input text for KindText.
	Prompt string

	// Temperature controls randomness (0.0 to 2.0).
	Temperature float64

	// MaxTokens caps the generated tokens (1 to 4000).
	MaxTokens int

	// User is an opaque end-user identifier forwarded upstream for abuse
	// monitoring. Optional.
	User string
}

// CompletionResult is the normalized result of a non-streaming call.
type CompletionResult struct {
	// ID is the upstream completion ID.
	ID string

	// Text is the generated text.
	Text string

	// Model is the model that produced the result.
	Model string

	// TokensConsumed is the total tokens billed, 0 if the upstream omitted usage.
	TokensConsumed int

	// FinishReason is why generation stopped.
	FinishReason string

	// Usage is the full usage breakdown when reported.
	Usage *TokenUsage
}

// StreamChunk is one incremental piece of a streamed completion.
type StreamChunk struct {
	// Index is the position of this chunk in its stream, from 0.
	Index int

	// Delta is the text added by this chunk.
	Delta string

	// Final is set on the last chunk of a completed stream.
	Final bool

	// FinishReason is set on the final chunk.
	FinishReason string

	// Model is the model reported by the upstream.
	Model string

	// Usage is reported by some upstreams on the final chunk.
	Usage *TokenUsage
}

// ModelCatalog lists supported models per completion kind.
type ModelCatalog struct {
	Chat []string `json:"chat_models" yaml:"chat"`
	Text []string `json:"text_models" yaml:"text"`
}

// Supports reports whether model is listed for kind.
func (c ModelCatalog) Supports(kind Kind, model string) bool {
	var list []string
	switch kind {
	case KindChat:
		list = c.Chat
	case KindText:
		list = c.Text
	}
	for _, m := range list {
		if m == model {
			return true
		}
	}
	return false
}

// Health tracks the provider's recent call outcomes.
type Health struct {
	IsHealthy             bool
	LastCheck             time.Time
	LastError             error
	ConsecutiveFailures   int
	LastSuccessfulRequest time.Time
	TotalRequests         int64
	FailedRequests        int64
}

// ProviderConfig contains configuration for an upstream provider.
type ProviderConfig struct {
	// Name identifies the provider in logs and metrics.
	Name string

	// BaseURL is the API base, e.g. "https://api.openai.com/v1".
	BaseURL string

	// APIKey is the bearer credential.
	APIKey string

	// Timeout bounds a non-streaming call.
	Timeout time.Duration

	// StreamTimeout bounds an entire streaming call.
	StreamTimeout time.Duration

	// RequestsPerSecond paces upstream calls. Zero disables pacing.
	RequestsPerSecond float64

	// Burst is the pacing bucket size. Defaults to 1 when pacing is on.
	Burst int

	// UnhealthyThreshold is the consecutive failures after which the
	// provider reports unhealthy. Default: 3
	UnhealthyThreshold int

	// Models lists the supported models.
	Models ModelCatalog

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}
