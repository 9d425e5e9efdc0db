package session

import (
	"encoding/json"
	"sync"
	"time"
)

// PendingConfirmation is a chat tool invocation waiting for user approval.
type PendingConfirmation struct {
	ConfirmationID string
	ToolName       string
	Description    string
	Parameters     json.RawMessage
	ReceivedAt     time.Time
}

// TxConfirmation is a queued blockchain transaction waiting for user approval.
type TxConfirmation struct {
	UUID           string
	Network        string
	From           string
	To             string
	Value          string
	ValueFormatted string
	Data           string
	ReceivedAt     time.Time
}

// Slot is a single-occupancy pending-approval holder. The gateway only ever
// keeps one approval live per channel, so a new Require overwrites whatever
// was held (self-healing after a missed resolution), and Resolve clears the
// slot unconditionally: resolution events are a "channel clear" signal, not a
// keyed ack.
type Slot[T any] struct {
	mu      sync.RWMutex
	pending *T
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

// Require installs the pending record, replacing any previous one.
func (s *Slot[T]) Require(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &v
}

// Resolve clears the slot regardless of what it holds.
func (s *Slot[T]) Resolve() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

// Pending returns a copy of the held record, if any.
func (s *Slot[T]) Pending() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending == nil {
		var zero T
		return zero, false
	}
	return *s.pending, true
}

// Reset is Resolve under another name, kept for symmetry with the other
// trackers' session-reset hooks.
func (s *Slot[T]) Reset() {
	s.Resolve()
}
