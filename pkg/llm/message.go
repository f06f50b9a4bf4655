// Package llm defines the provider-agnostic chat schema shared by the call
// strategies. Provider payloads are parsed and validated into these types at
// the boundary; nothing downstream touches raw provider JSON.
package llm

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// NewMessage creates a message with the given role and content.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content}
}
