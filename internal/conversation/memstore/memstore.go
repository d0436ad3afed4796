// Package memstore provides an in-memory implementation of conversation.Store.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/sage/internal/conversation"
)

// Store holds conversations in memory. Suitable for dev/testing.
type Store struct {
	mu            sync.RWMutex
	conversations map[int64]*conversation.Conversation
	messages      map[int64][]conversation.Message // conversation ID -> turns
	nextConvID    int64
	nextMsgID     int64
}

// New initializes an empty in-memory Store.
func New() *Store {
	return &Store{
		conversations: make(map[int64]*conversation.Conversation),
		messages:      make(map[int64][]conversation.Message),
		nextConvID:    1,
		nextMsgID:     1,
	}
}

// Create opens a new conversation.
func (s *Store) Create(_ context.Context, userID, title string) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	c := &conversation.Conversation{
		ID:        s.nextConvID,
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.nextConvID++
	s.conversations[c.ID] = c
	cp := *c
	return &cp, nil
}

// Get retrieves a conversation by ID. Returns a copy.
func (s *Store) Get(_ context.Context, id int64) (*conversation.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, false, nil
	}
	cp := *c
	return &cp, true, nil
}

// AppendMessage stores a copy of the turn and bumps updated_at.
func (s *Store) AppendMessage(_ context.Context, msg *conversation.Message) (*conversation.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[msg.ConversationID]
	if !ok {
		return nil, xerrors.New("conversation not found")
	}

	cp := *msg
	cp.ID = s.nextMsgID
	s.nextMsgID++
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], cp)
	c.UpdatedAt = cp.CreatedAt

	out := cp
	return &out, nil
}

// ListMessages returns a conversation's turns in append order.
func (s *Store) ListMessages(_ context.Context, conversationID int64) ([]conversation.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	out := make([]conversation.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}
