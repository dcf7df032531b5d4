package types

// CompletionRequest is the JSON body accepted by the completion routes.
// Each route reads the fields it needs: /chat, /conversation and
// /advanced/stream use Message, /text uses Prompt, and only /conversation
// uses ConversationHistory. Absent optional fields take route defaults.
type CompletionRequest struct {
	// Message is the user turn.
	Message string `json:"message,omitempty"`

	// Prompt is the text completion input.
	Prompt string `json:"prompt,omitempty"`

	// ConversationHistory precedes Message, oldest first.
	ConversationHistory []HistoryMessage `json:"conversation_history,omitempty"`

	// Model overrides the route's default model.
	Model string `json:"model,omitempty"`

	// Temperature is the sampling temperature, 0.0 to 2.0.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens caps generated tokens, 1 to 4000.
	MaxTokens *int `json:"max_tokens,omitempty"`
}

// HistoryMessage is one prior conversation turn.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
