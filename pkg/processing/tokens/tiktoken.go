package tokens

import (
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"mercator-hq/gateway/pkg/providers"
)

// fallbackEncodingModel is used for models tiktoken does not know.
const fallbackEncodingModel = "gpt-3.5-turbo"

// TiktokenEstimator counts tokens with the model's BPE encoding.
// Encodings are loaded lazily and cached per model. When an encoding cannot
// be loaded at all (for example without network access to fetch the
// vocabulary), the fallback estimator is used for that model.
type TiktokenEstimator struct {
	fallback Estimator

	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
	missing  map[string]bool

	// load is replaceable in tests.
	load func(model string) (*tiktoken.Tiktoken, error)
}

// NewTiktokenEstimator creates a tiktoken estimator over fallback.
func NewTiktokenEstimator(fallback Estimator) *TiktokenEstimator {
	return &TiktokenEstimator{
		fallback: fallback,
		encoders: make(map[string]*tiktoken.Tiktoken),
		missing:  make(map[string]bool),
		load:     tiktoken.EncodingForModel,
	}
}

// EstimateText counts the tokens of text.
func (e *TiktokenEstimator) EstimateText(text string, model string) (int, error) {
	if text == "" {
		return 0, nil
	}
	enc := e.encoder(model)
	if enc == nil {
		return e.fallback.EstimateText(text, model)
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// EstimateMessages counts the tokens of a chat prompt, following the
// per-message overhead of the chat format.
func (e *TiktokenEstimator) EstimateMessages(messages []providers.Message, model string) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}
	enc := e.encoder(model)
	if enc == nil {
		return e.fallback.EstimateMessages(messages, model)
	}

	total := 0
	for _, msg := range messages {
		total += perMessageOverhead
		total += len(enc.Encode(msg.Role, nil, nil))
		total += len(enc.Encode(msg.Content, nil, nil))
	}
	return total + replyPriming, nil
}

func (e *TiktokenEstimator) encoder(model string) *tiktoken.Tiktoken {
	e.mu.Lock()
	defer e.mu.Unlock()

	if enc, ok := e.encoders[model]; ok {
		return enc
	}
	if e.missing[model] {
		return nil
	}

	enc, err := e.load(model)
	if err != nil && model != fallbackEncodingModel {
		slog.Warn("no tiktoken encoding for model, using fallback encoding",
			"model", model,
			"fallback_model", fallbackEncodingModel,
			"error", err,
		)
		enc, err = e.load(fallbackEncodingModel)
	}
	if err != nil {
		slog.Warn("tiktoken encoding unavailable, using character estimate",
			"model", model,
			"error", err,
		)
		e.missing[model] = true
		return nil
	}

	e.encoders[model] = enc
	return enc
}
