package history

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used in tests and when no transcript path
// is configured.
type MemoryStore struct {
	messages      map[string][]Message
	mu            sync.RWMutex
	nextID        int64
	maxPerSession int
}

// NewMemoryStore creates an in-memory store keeping at most maxPerSession
// messages per session token.
func NewMemoryStore(maxPerSession int) *MemoryStore {
	if maxPerSession <= 0 {
		maxPerSession = 1000
	}
	return &MemoryStore{
		messages:      make(map[string][]Message),
		maxPerSession: maxPerSession,
	}
}

// Append stores one message, trimming the oldest entries past the cap.
func (s *MemoryStore) Append(ctx context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	msg.ID = s.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	messages := append(s.messages[msg.SessionToken], msg)
	if len(messages) > s.maxPerSession {
		messages = messages[len(messages)-s.maxPerSession:]
	}
	s.messages[msg.SessionToken] = messages
	return nil
}

// List returns up to limit most recent messages, oldest first.
func (s *MemoryStore) List(ctx context.Context, sessionToken string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := s.messages[sessionToken]
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	return out, nil
}

// Clear drops the session's transcript.
func (s *MemoryStore) Clear(ctx context.Context, sessionToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, sessionToken)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
