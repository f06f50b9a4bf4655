package llm

// ChatRequest is a provider-agnostic chat completion request. Call strategies
// translate it into their provider-specific wire format.
type ChatRequest struct {
	// Model name (e.g. "gpt-4o-mini").
	Model string `json:"model"`

	// System prompt, kept separate from the conversation messages.
	System string `json:"system,omitempty"`

	// Conversation messages.
	Messages []Message `json:"messages"`

	// Generation parameters. Zero MaxTokens means provider default;
	// temperature defaults low since grounding beats creativity here.
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature"`
}
