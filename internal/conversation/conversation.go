// Package conversation persists chat exchanges: the pipeline itself performs
// no writes, so the HTTP layer records each user message and assistant reply
// here after a run completes.
package conversation

import (
	"context"
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// titleRunes caps conversation titles derived from the opening message.
const titleRunes = 50

// Conversation is one chat thread owned by a user.
type Conversation struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one stored turn. Source is set on assistant turns only and
// carries the pipeline's source tag (internal/internet/system).
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Source         string    `json:"source,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store is the persistence interface for conversations.
type Store interface {
	// Create opens a new conversation for userID.
	Create(ctx context.Context, userID, title string) (*Conversation, error)

	// Get retrieves a conversation by ID.
	Get(ctx context.Context, id int64) (*Conversation, bool, error)

	// AppendMessage stores one turn and bumps the conversation's updated_at.
	AppendMessage(ctx context.Context, msg *Message) (*Message, error)

	// ListMessages returns a conversation's turns in chronological order.
	ListMessages(ctx context.Context, conversationID int64) ([]Message, error)
}

// TitleFor derives a conversation title from its opening message.
func TitleFor(message string) string {
	runes := []rune(message)
	if len(runes) <= titleRunes {
		return message
	}
	return string(runes[:titleRunes])
}
