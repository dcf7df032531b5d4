package tokens

import (
	"strings"

	"mercator-hq/gateway/pkg/config"
	"mercator-hq/gateway/pkg/providers"
)

// Formatting overhead of the chat format, in tokens.
const (
	roleTokens         = 1
	perMessageOverhead = 3
	replyPriming       = 3
)

// SimpleEstimator implements character-based token estimation.
// It uses model-specific characters-per-token ratios to estimate token counts.
type SimpleEstimator struct {
	config *config.TokensConfig
}

// NewSimpleEstimator creates a new simple character-based token estimator.
func NewSimpleEstimator(cfg *config.TokensConfig) *SimpleEstimator {
	return &SimpleEstimator{
		config: cfg,
	}
}

// EstimateText estimates tokens for a single text string.
// It uses the model-specific characters-per-token ratio.
func (e *SimpleEstimator) EstimateText(text string, model string) (int, error) {
	if text == "" {
		return 0, nil
	}

	charsPerToken := e.getCharsPerToken(model)
	charCount := len(text)

	tokens := float64(charCount) / charsPerToken
	if tokens < 1.0 {
		tokens = 1.0 // Minimum 1 token for non-empty text
	}

	return int(tokens + 0.5), nil
}

// EstimateMessages estimates tokens for a list of messages.
// Returns total prompt tokens including overhead for message formatting.
func (e *SimpleEstimator) EstimateMessages(messages []providers.Message, model string) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	total := 0
	for _, msg := range messages {
		contentTokens, err := e.EstimateText(msg.Content, model)
		if err != nil {
			return 0, err
		}
		total += roleTokens + contentTokens + perMessageOverhead
	}

	return total + replyPriming, nil
}

// getCharsPerToken returns the characters-per-token ratio for a model.
// Exact names win over the longest matching prefix, then "default".
func (e *SimpleEstimator) getCharsPerToken(model string) float64 {
	if e.config == nil {
		return 4.0
	}
	if ratio, ok := e.config.Models[model]; ok {
		return ratio
	}

	best, bestLen := 0.0, 0
	for pattern, ratio := range e.config.Models {
		if len(pattern) > bestLen && strings.HasPrefix(model, pattern) {
			best, bestLen = ratio, len(pattern)
		}
	}
	if bestLen > 0 {
		return best
	}

	if ratio, ok := e.config.Models["default"]; ok {
		return ratio
	}
	return 4.0
}
