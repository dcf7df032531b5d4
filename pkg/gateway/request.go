package gateway

import (
	"fmt"
	"unicode/utf8"

	"mercator-hq/gateway/pkg/config"
	"mercator-hq/gateway/pkg/providers"
)

// Route identifies an inbound completion endpoint.
type Route string

const (
	RouteChat         Route = "/chat"
	RouteText         Route = "/text"
	RouteConversation Route = "/conversation"
	RouteStream       Route = "/advanced/stream"
)

// Kind returns the completion API the route uses.
func (r Route) Kind() providers.Kind {
	if r == RouteText {
		return providers.KindText
	}
	return providers.KindChat
}

// Streaming reports whether the route relays a stream.
func (r Route) Streaming() bool {
	return r == RouteStream
}

func (r Route) known() bool {
	switch r {
	case RouteChat, RouteText, RouteConversation, RouteStream:
		return true
	}
	return false
}

// Input limits.
const (
	MaxInputLength = 2000
	MaxHistory     = 20
	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 1
	MaxMaxTokens   = 4000
)

// Request is one inbound completion call. Optional fields are pointers so
// an explicit zero is validated rather than defaulted.
type Request struct {
	Route     Route
	ClientID  string
	RequestID string

	// Message is the user turn for chat, conversation and stream routes.
	Message string

	// Prompt is the input of the text route.
	Prompt string

	// History precedes Message on the conversation route.
	History []providers.Message

	Model       string
	Temperature *float64
	MaxTokens   *int
}

// Defaults fill fields a request omits.
type Defaults struct {
	ChatModel       string
	TextModel       string
	Temperature     float64
	MaxTokens       int
	StreamMaxTokens int
}

// DefaultsFromConfig converts request defaults from configuration.
func DefaultsFromConfig(cfg config.RequestDefaults) Defaults {
	d := Defaults{
		ChatModel:       cfg.ChatModel,
		TextModel:       cfg.TextModel,
		Temperature:     0.7,
		MaxTokens:       cfg.MaxTokens,
		StreamMaxTokens: cfg.StreamMaxTokens,
	}
	if cfg.Temperature != nil {
		d.Temperature = *cfg.Temperature
	}
	return d
}

// Validate checks req, applies defaults and builds the upstream request.
// The model must be in catalog for the route's kind.
func Validate(req *Request, defaults Defaults, catalog providers.ModelCatalog) (*providers.CompletionRequest, error) {
	if req == nil {
		return nil, NewValidationError("", "request is required")
	}
	if !req.Route.known() {
		return nil, NewInternalError(fmt.Errorf("unknown route %q", req.Route))
	}

	out := &providers.CompletionRequest{
		Kind:        req.Route.Kind(),
		Model:       req.Model,
		Temperature: defaults.Temperature,
		MaxTokens:   defaults.MaxTokens,
	}
	if req.Route.Streaming() && defaults.StreamMaxTokens > 0 {
		out.MaxTokens = defaults.StreamMaxTokens
	}

	if out.Model == "" {
		out.Model = defaults.ChatModel
		if out.Kind == providers.KindText {
			out.Model = defaults.TextModel
		}
	}
	if out.Model == "" {
		return nil, NewValidationError("model", "model is required")
	}
	if !catalog.Supports(out.Kind, out.Model) {
		return nil, NewValidationError("model",
			fmt.Sprintf("model %q is not supported for %s completions", out.Model, out.Kind))
	}

	if req.Temperature != nil {
		t := *req.Temperature
		if t < MinTemperature || t > MaxTemperature {
			return nil, NewValidationError("temperature",
				fmt.Sprintf("temperature must be between %.1f and %.1f", MinTemperature, MaxTemperature))
		}
		out.Temperature = t
	}

	if req.MaxTokens != nil {
		n := *req.MaxTokens
		if n < MinMaxTokens || n > MaxMaxTokens {
			return nil, NewValidationError("max_tokens",
				fmt.Sprintf("max_tokens must be between %d and %d", MinMaxTokens, MaxMaxTokens))
		}
		out.MaxTokens = n
	}

	if out.Kind == providers.KindText {
		if err := checkLength("prompt", req.Prompt); err != nil {
			return nil, err
		}
		out.Prompt = req.Prompt
		return out, nil
	}

	if err := checkLength("message", req.Message); err != nil {
		return nil, err
	}

	if req.Route == RouteConversation {
		if len(req.History) > MaxHistory {
			return nil, NewValidationError("conversation_history",
				fmt.Sprintf("conversation_history cannot exceed %d messages", MaxHistory))
		}
		for i, msg := range req.History {
			switch msg.Role {
			case providers.RoleUser, providers.RoleAssistant, providers.RoleSystem:
			default:
				return nil, NewValidationError(fmt.Sprintf("conversation_history[%d].role", i),
					`role must be "user", "assistant", or "system"`)
			}
		}
		out.Messages = append(out.Messages, req.History...)
	}
	out.Messages = append(out.Messages, providers.Message{Role: providers.RoleUser, Content: req.Message})

	return out, nil
}

// checkLength enforces 1..MaxInputLength characters.
func checkLength(field, s string) error {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return NewValidationError(field, field+" is required")
	}
	if n > MaxInputLength {
		return NewValidationError(field,
			fmt.Sprintf("%s must be at most %d characters", field, MaxInputLength))
	}
	return nil
}
