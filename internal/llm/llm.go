// Package llm defines the text-generation capability consumed by the triage
// pipeline's generation fallback.
package llm

import "context"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation sent to the provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the interface for any text-generation backend. Chat returns the
// generated reply text for the given system prompt and conversation.
// Implementations must honor ctx cancellation and deadlines.
type Provider interface {
	Chat(ctx context.Context, system string, messages []Message) (string, error)
}
