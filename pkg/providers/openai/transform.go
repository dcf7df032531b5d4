package openai

import (
	"fmt"
	"strings"

	"mercator-hq/gateway/pkg/providers"
)

// OpenAI API request/response types

// ChatRequest is an OpenAI chat completion request.
type ChatRequest struct {
	Model         string          `json:"model"`
	Messages      []OpenAIMessage `json:"messages"`
	Temperature   float64         `json:"temperature"`
	MaxTokens     int             `json:"max_tokens"`
	Stream        bool            `json:"stream,omitempty"`
	StreamOptions *StreamOptions  `json:"stream_options,omitempty"`
	User          string          `json:"user,omitempty"`
}

// StreamOptions asks for a usage trailer on streamed chat responses.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// TextRequest is a legacy text completion request.
type TextRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Stream      bool    `json:"stream,omitempty"`
	User        string  `json:"user,omitempty"`
}

// OpenAIMessage is a message in OpenAI format.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse covers both chat and text completion responses.
// Chat choices carry Message; text choices carry Text.
type CompletionResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   *OpenAIUsage   `json:"usage,omitempty"`
}

// OpenAIChoice is a completion choice.
type OpenAIChoice struct {
	Index        int            `json:"index"`
	Message      *OpenAIMessage `json:"message,omitempty"`
	Text         *string        `json:"text,omitempty"`
	FinishReason string         `json:"finish_reason"`
}

// OpenAIUsage is token usage in OpenAI format.
type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamResponse is one SSE event of a streamed chat or text completion.
type StreamResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
	Usage   *OpenAIUsage   `json:"usage,omitempty"`
}

// StreamChoice is a choice in a stream event.
type StreamChoice struct {
	Index        int          `json:"index"`
	Delta        *StreamDelta `json:"delta,omitempty"`
	Text         string       `json:"text,omitempty"`
	FinishReason *string      `json:"finish_reason"`
}

// StreamDelta is the incremental content of a chat stream event.
type StreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// Transformation functions

func buildChatRequest(req *providers.CompletionRequest, stream bool) *ChatRequest {
	out := &ChatRequest{
		Model:       req.Model,
		Messages:    make([]OpenAIMessage, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
		User:        req.User,
	}
	if stream {
		out.StreamOptions = &StreamOptions{IncludeUsage: true}
	}
	for i, msg := range req.Messages {
		out.Messages[i] = OpenAIMessage{Role: msg.Role, Content: msg.Content}
	}
	return out
}

func buildTextRequest(req *providers.CompletionRequest, stream bool) *TextRequest {
	return &TextRequest{
		Model:       req.Model,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
		User:        req.User,
	}
}

// transformResponse normalizes a completion response.
func transformResponse(kind providers.Kind, resp *CompletionResponse) (*providers.CompletionResult, error) {
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("response contains no choices")
	}
	choice := resp.Choices[0]

	var text string
	switch kind {
	case providers.KindText:
		if choice.Text == nil {
			return nil, fmt.Errorf("text completion choice has no text")
		}
		text = strings.TrimSpace(*choice.Text)
	default:
		if choice.Message == nil {
			return nil, fmt.Errorf("chat completion choice has no message")
		}
		text = choice.Message.Content
	}

	result := &providers.CompletionResult{
		ID:           resp.ID,
		Text:         text,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
	}
	if resp.Usage != nil {
		result.Usage = &providers.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		result.TokensConsumed = resp.Usage.TotalTokens
	}
	return result, nil
}

// transformStreamChunk extracts the delta and finish reason of one event.
// Events without choices (usage-only trailers) yield an empty delta.
func transformStreamChunk(event *StreamResponse) (delta, finishReason string, usage *providers.TokenUsage) {
	if event.Usage != nil {
		usage = &providers.TokenUsage{
			PromptTokens:     event.Usage.PromptTokens,
			CompletionTokens: event.Usage.CompletionTokens,
			TotalTokens:      event.Usage.TotalTokens,
		}
	}
	if len(event.Choices) == 0 {
		return "", "", usage
	}

	choice := event.Choices[0]
	if choice.Delta != nil {
		delta = choice.Delta.Content
	} else {
		delta = choice.Text
	}
	if choice.FinishReason != nil {
		finishReason = *choice.FinishReason
	}
	return delta, finishReason, usage
}
