package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/gateway/pkg/providers"
)

const (
	// DefaultBaseURL is the public OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	defaultTimeout       = 30 * time.Second
	defaultStreamTimeout = 5 * time.Minute
)

// Provider is the OpenAI-compatible upstream adapter.
type Provider struct {
	*providers.HTTPProvider
}

var _ providers.Provider = (*Provider)(nil)

// NewProvider creates a new OpenAI provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = "openai"
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if len(config.Models.Chat) == 0 && len(config.Models.Text) == 0 {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "models",
			Message:  "at least one supported model is required",
		}
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.StreamTimeout <= 0 {
		config.StreamTimeout = defaultStreamTimeout
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}
	if config.IdleConnTimeout == 0 {
		config.IdleConnTimeout = 90 * time.Second
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("OpenAI provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"chat_models", len(config.Models.Chat),
		"text_models", len(config.Models.Text),
		"requests_per_second", config.RequestsPerSecond,
	)

	return p, nil
}

// Complete sends a non-streaming completion request.
func (p *Provider) Complete(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResult, error) {
	if err := p.validateRequest(req); err != nil {
		return nil, err
	}

	cfg := p.Config()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	url, body := p.endpoint(req, false)

	var resp CompletionResponse
	err := p.DoJSONRequest(ctx, "POST", url, body, &resp, p.headers(false), cfg.Timeout)
	if err != nil {
		p.RecordOutcome(err)
		return nil, err
	}

	result, err := transformResponse(req.Kind, &resp)
	if err != nil {
		perr := &providers.ParseError{Provider: p.Name(), Cause: err}
		p.RecordOutcome(perr)
		return nil, perr
	}
	if result.Model == "" {
		result.Model = req.Model
	}
	p.RecordOutcome(nil)

	slog.DebugContext(ctx, "completion request succeeded",
		"provider", p.Name(),
		"model", result.Model,
		"tokens", result.TokensConsumed,
	)

	return result, nil
}

// Stream opens a streaming completion. The stream deadline starts now and
// covers the whole stream.
func (p *Provider) Stream(ctx context.Context, req *providers.CompletionRequest) (providers.StreamReader, error) {
	if err := p.validateRequest(req); err != nil {
		return nil, err
	}

	cfg := p.Config()
	ctx, cancel := context.WithTimeout(ctx, cfg.StreamTimeout)

	url, body := p.endpoint(req, true)
	payload, err := json.Marshal(body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.DoRequest(ctx, "POST", url, payload, p.headers(true), cfg.StreamTimeout)
	if err != nil {
		cancel()
		p.RecordOutcome(err)
		return nil, err
	}
	p.RecordOutcome(nil)

	return &trackedStream{
		streamReader: newStreamReader(p.Name(), resp, cancel),
		provider:     p,
	}, nil
}

// validateRequest checks the request locally before any network I/O.
func (p *Provider) validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{Field: "request", Message: "request cannot be nil"}
	}
	if req.Model == "" {
		return &providers.ValidationError{Field: "model", Message: "model is required"}
	}

	switch req.Kind {
	case providers.KindChat:
		if len(req.Messages) == 0 {
			return &providers.ValidationError{Field: "messages", Message: "at least one message is required"}
		}
	case providers.KindText:
		if req.Prompt == "" {
			return &providers.ValidationError{Field: "prompt", Message: "prompt is required"}
		}
	default:
		return &providers.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown completion kind %q", req.Kind)}
	}

	if !p.Models().Supports(req.Kind, req.Model) {
		return &providers.ValidationError{
			Field:   "model",
			Message: fmt.Sprintf("model %q is not supported for %s completions", req.Model, req.Kind),
		}
	}
	return nil
}

func (p *Provider) endpoint(req *providers.CompletionRequest, stream bool) (string, interface{}) {
	base := p.Config().BaseURL
	if req.Kind == providers.KindText {
		return base + "/completions", buildTextRequest(req, stream)
	}
	return base + "/chat/completions", buildChatRequest(req, stream)
}

func (p *Provider) headers(stream bool) map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + p.Config().APIKey,
		"Content-Type":  "application/json",
	}
	if stream {
		h["Accept"] = "text/event-stream"
	}
	return h
}

// trackedStream feeds mid-stream failures into passive health.
type trackedStream struct {
	*streamReader
	provider *Provider
}

func (t *trackedStream) Read(ctx context.Context) (*providers.StreamChunk, error) {
	chunk, err := t.streamReader.Read(ctx)
	if err != nil && err != io.EOF {
		t.provider.RecordOutcome(err)
	}
	return chunk, err
}
