package session

import (
	"sync"

	"github.com/google/uuid"
)

// Scope identifies the chat session the console is attached to. The token is
// generated client-side and stays stable for the lifetime of the scope; the
// numeric backend session id is learned later (session.created event or the
// session endpoint) and may be absent for a while after startup.
type Scope struct {
	mu        sync.RWMutex
	token     string
	sessionID *int64
}

// NewScope creates a scope with a fresh client token and no backend id yet.
func NewScope() *Scope {
	return &Scope{token: uuid.New().String()}
}

// Token returns the client-generated opaque session token.
func (s *Scope) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SessionID returns the backend session id, if known.
func (s *Scope) SessionID() (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sessionID == nil {
		return 0, false
	}
	return *s.sessionID, true
}

// AttachSessionID records the backend session id once it becomes known.
func (s *Scope) AttachSessionID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = &id
}

// Reset replaces the token and forgets the backend session id. Callers reset
// the trackers and the dedupe set alongside.
func (s *Scope) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = uuid.New().String()
	s.sessionID = nil
}
