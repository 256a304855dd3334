package generation

import (
	"context"
	"io"
)

// Role identifies the author of a chat message.
type Role string

// Supported message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest describes one completion call. Zero sampling values mean
// "use the provider default".
type CompletionRequest struct {
	SystemPrompt     string
	Messages         []Message
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Usage reports token accounting when the provider returns it.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// CompletionResponse carries the text of the first choice.
type CompletionResponse struct {
	Text  string
	Model string
	Usage Usage
}

// Completer produces a text completion for a request.
//
// Implementations return ErrInvalidResponse when the provider answers without
// usable content, ErrContentBlocked when a safety filter stopped generation,
// and ErrBackendUnavailable wrapping the cause for transport or API failures.
// A canceled or expired ctx surfaces as the context error.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Transcriber converts recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Synthesizer renders text as MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Validate checks that a request has something to complete.
func (r CompletionRequest) Validate() error {
	if len(r.Messages) == 0 {
		return ErrEmptyPrompt
	}
	for _, m := range r.Messages {
		if m.Content == "" {
			return ErrEmptyPrompt
		}
	}
	return nil
}
