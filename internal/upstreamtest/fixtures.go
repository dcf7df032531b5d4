package upstreamtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Paths served by an OpenAI-compatible upstream.
const (
	ChatPath = "/chat/completions"
	TextPath = "/completions"
)

// MockChatResponse creates a chat completion response body.
func MockChatResponse(content, model string, totalTokens int) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     totalTokens / 3,
			"completion_tokens": totalTokens - totalTokens/3,
			"total_tokens":      totalTokens,
		},
	}
}

// MockTextResponse creates a legacy text completion response body.
func MockTextResponse(text, model string, totalTokens int) map[string]interface{} {
	return map[string]interface{}{
		"id":      "cmpl-123",
		"object":  "text_completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"text":          text,
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     totalTokens / 2,
			"completion_tokens": totalTokens - totalTokens/2,
			"total_tokens":      totalTokens,
		},
	}
}

// MockChatStreamChunk creates one chat stream event. An empty finishReason
// is sent as null.
func MockChatStreamChunk(delta, finishReason string) string {
	var reason interface{}
	if finishReason != "" {
		reason = finishReason
	}
	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   "gpt-3.5-turbo",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"delta":         map[string]interface{}{"content": delta},
				"finish_reason": reason,
			},
		},
	}
	b, _ := json.Marshal(chunk)
	return string(b)
}

// MockUsageChunk creates a usage-only stream trailer.
func MockUsageChunk(total int) string {
	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"model":   "gpt-3.5-turbo",
		"choices": []interface{}{},
		"usage": map[string]interface{}{
			"prompt_tokens":     total / 2,
			"completion_tokens": total - total/2,
			"total_tokens":      total,
		},
	}
	b, _ := json.Marshal(chunk)
	return string(b)
}

// MockChatStream builds a stream of deltas where the last carries "stop".
func MockChatStream(deltas ...string) []string {
	out := make([]string, len(deltas))
	for i, d := range deltas {
		reason := ""
		if i == len(deltas)-1 {
			reason = "stop"
		}
		out[i] = MockChatStreamChunk(d, reason)
	}
	return out
}

// MockErrorResponse creates an upstream error response.
func MockErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
				"type":    "invalid_request_error",
				"code":    statusCode,
			},
		},
	}
}

// MockAuthError creates a 401 response.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Incorrect API key provided: sk-abc***")
}

// MockRateLimitError creates a 429 response with Retry-After.
func MockRateLimitError(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "You exceeded your current quota")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// MockServerError creates a 500 response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "The server had an error while processing your request")
}

// MockSlowResponse delays a successful response to force timeouts.
func MockSlowResponse(delay time.Duration) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       MockChatResponse("too late", "gpt-3.5-turbo", 3),
		Delay:      delay,
	}
}
