package session

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultDedupeSize = 4096

// MessageDeduper is an id-keyed idempotency set. Assistant messages can reach
// the console twice, once as a tool.result push over the websocket and once
// inside the REST chat response, in either order; whichever copy arrives
// second is dropped by id. The set is content-blind and bounded.
type MessageDeduper struct {
	seen *lru.Cache[string, struct{}]
}

// NewMessageDeduper creates a deduper holding up to size ids. A size of zero
// or less falls back to a sane default.
func NewMessageDeduper(size int) *MessageDeduper {
	if size <= 0 {
		size = defaultDedupeSize
	}
	// lru.New only errors on a non-positive size.
	c, _ := lru.New[string, struct{}](size)
	return &MessageDeduper{seen: c}
}

// Seen reports whether the id has already been observed.
func (d *MessageDeduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	return d.seen.Contains(id)
}

// Mark records the id. Marking the empty id is a no-op.
func (d *MessageDeduper) Mark(id string) {
	if id == "" {
		return
	}
	d.seen.Add(id, struct{}{})
}

// Observe marks the id and reports whether it was new. Messages without an id
// are always considered new; there is nothing to key on. The check-and-insert
// is a single cache operation so concurrent observers of the same id cannot
// both see it as new.
func (d *MessageDeduper) Observe(id string) bool {
	if id == "" {
		return true
	}
	ok, _ := d.seen.ContainsOrAdd(id, struct{}{})
	return !ok
}

// Reset clears the set. Called on session reset.
func (d *MessageDeduper) Reset() {
	d.seen.Purge()
}
