package types

// CompletionResponse is returned by /chat, /text and /conversation.
type CompletionResponse struct {
	Response     string `json:"response"`
	Model        string `json:"model"`
	TokensUsed   int    `json:"tokens_used"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// StreamFrame is the payload of one SSE data event.
type StreamFrame struct {
	Delta        Delta   `json:"delta"`
	Index        int     `json:"index"`
	FinishReason *string `json:"finish_reason"`
}

// Delta is the incremental content of a stream frame.
type Delta struct {
	Content string `json:"content"`
}

// InfoResponse describes the service at GET /.
type InfoResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// ModelsResponse lists supported models at GET /advanced/models.
type ModelsResponse struct {
	ChatModels []string `json:"chat_models"`
	TextModels []string `json:"text_models"`
	Note       string   `json:"note"`
}
