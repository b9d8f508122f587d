package llm

import (
	"context"
	"errors"
)

// Provider is a chat model backend. Implementations must be safe for
// concurrent use.
type Provider interface {
	// Complete sends the conversation and returns the whole answer once the
	// model is done.
	Complete(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// Stream sends the conversation and calls fn with every piece of the
	// answer as it arrives. The assembled answer is returned at the end.
	// An error from fn aborts the request and is returned as is.
	Stream(ctx context.Context, messages []Message, opts *ChatOptions, fn TokenFunc) (*Response, error)

	// Heartbeat returns nil when the backend is reachable.
	Heartbeat(ctx context.Context) error

	// ModelAvailable reports whether model can be used without pulling it first.
	ModelAvailable(ctx context.Context, model string) (bool, error)
}

// TokenFunc receives streamed answer text.
type TokenFunc func(text string) error

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// ChatOptions overrides per-request settings. A nil *ChatOptions uses the
// provider's configured model at temperature 0.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int // 0 leaves the length to the model
}

// Usage counts the tokens of one request as reported by the backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Total is prompt plus completion tokens.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}

// Response is a finished answer.
type Response struct {
	Content string
	Model   string // the model that answered
	Usage   Usage
}

var (
	// ErrProviderUnavailable means the backend could not be reached or failed
	// the request.
	ErrProviderUnavailable = errors.New("llm provider is not reachable")

	// ErrModelNotFound means the backend does not have the requested model.
	ErrModelNotFound = errors.New("requested model is not available")

	// ErrContextCanceled means the request ended with its context.
	ErrContextCanceled = errors.New("operation was canceled")

	// ErrEmptyConversation is returned when no messages are given.
	ErrEmptyConversation = errors.New("messages cannot be empty")
)
