// Package history persists the chat transcript the console renders. Messages
// are keyed by the client session token so a transcript survives reconnects
// but not an explicit new-session.
package history

import (
	"context"
	"time"
)

// Role is the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry. MessageID is the backend's id for
// assistant messages and is used for idempotent writes; user messages have
// none.
type Message struct {
	ID           int64
	SessionToken string
	Role         Role
	Content      string
	MessageID    *string
	CreatedAt    time.Time
}

// Store is the transcript sink and source.
type Store interface {
	// Append stores one message. Appending is not idempotent; callers
	// deduplicate by MessageID before writing.
	Append(ctx context.Context, msg Message) error
	// List returns up to limit most recent messages for the session, oldest
	// first. limit <= 0 means no limit.
	List(ctx context.Context, sessionToken string, limit int) ([]Message, error)
	// Clear drops the session's transcript.
	Clear(ctx context.Context, sessionToken string) error
	Close() error
}
