package ai

import (
	"time"
)

// Role identifies the author of a chat message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message exchanged with the completion model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a request for text generation
type CompletionRequest struct {
	// Model specifies which model to use (provider-specific)
	Model string `json:"model,omitempty"`

	// Messages is the chat history to complete
	Messages []Message `json:"messages,omitempty"`

	// Prompt is a bare input text; used when Messages is empty
	Prompt string `json:"prompt,omitempty"`

	// MaxTokens limits the response length
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 1.0)
	Temperature float64 `json:"temperature,omitempty"`

	// Stream indicates if streaming response is requested
	Stream bool `json:"stream,omitempty"`
}

// CompletionResponse represents the response from a completion request
type CompletionResponse struct {
	// Content is the generated text
	Content string `json:"content"`

	// Model indicates which model was used
	Model string `json:"model"`

	// CreatedAt timestamp
	CreatedAt time.Time `json:"created_at"`
}

// StreamChunk represents a streaming response chunk
type StreamChunk struct {
	Content string
	Done    bool
	Error   error
}
