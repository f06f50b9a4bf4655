package llm

import (
	"errors"
	"time"
)

// ErrInvalidResponse is returned when a provider response fails schema
// validation. Strategies treat it as retryable: a malformed payload from an
// unreliable upstream is transient, not a request defect.
var ErrInvalidResponse = errors.New("invalid model response")

// ChatResponse is a provider-agnostic chat completion response.
type ChatResponse struct {
	// Model that generated the response.
	Model string `json:"model"`

	// CreatedAt is the response timestamp.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// Message is the assistant's reply.
	Message Message `json:"message"`

	// StopReason is the provider's finish reason ("stop", "length", ...).
	StopReason string `json:"stop_reason,omitempty"`

	// Degraded marks a templated, non-model-generated response produced
	// when every call strategy failed.
	Degraded bool `json:"degraded,omitempty"`

	// Usage holds token accounting when the provider reports it.
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token counts reported by the provider.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Validate checks the response against the internal schema contract:
// a non-empty assistant message. Anything else is rejected rather than
// accessed speculatively downstream.
func (r *ChatResponse) Validate() error {
	if r == nil {
		return ErrInvalidResponse
	}
	if r.Message.Content == "" {
		return ErrInvalidResponse
	}
	return nil
}
