package tokens

import (
	"log/slog"

	"mercator-hq/gateway/pkg/config"
	"mercator-hq/gateway/pkg/providers"
)

// Estimator estimates token counts for text and messages.
// Implementations may use different algorithms (character-based, BPE).
type Estimator interface {
	// EstimateText estimates tokens for a single text string.
	EstimateText(text string, model string) (int, error)

	// EstimateMessages estimates tokens for a list of messages.
	// Returns total prompt tokens including overhead.
	EstimateMessages(messages []providers.Message, model string) (int, error)
}

// New returns the estimator selected by cfg.Estimator. An unknown name
// falls back to the simple estimator.
func New(cfg *config.TokensConfig) Estimator {
	simple := NewSimpleEstimator(cfg)
	switch cfg.Estimator {
	case "tiktoken":
		return NewTiktokenEstimator(simple)
	case "", "simple":
		return simple
	default:
		slog.Warn("unknown token estimator, using simple", "estimator", cfg.Estimator)
		return simple
	}
}

// Usage builds a usage breakdown from a prompt and the generated text.
// It is used when the upstream did not report usage.
func Usage(e Estimator, req *providers.CompletionRequest, completion string) *providers.TokenUsage {
	var prompt int
	if req.Kind == providers.KindText {
		prompt, _ = e.EstimateText(req.Prompt, req.Model)
	} else {
		prompt, _ = e.EstimateMessages(req.Messages, req.Model)
	}
	generated, _ := e.EstimateText(completion, req.Model)

	return &providers.TokenUsage{
		PromptTokens:     prompt,
		CompletionTokens: generated,
		TotalTokens:      prompt + generated,
	}
}
