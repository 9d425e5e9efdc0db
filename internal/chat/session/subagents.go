package session

import (
	"sort"
	"sync"
	"time"

	v1 "github.com/starkbot/console/pkg/api/v1"
)

// Subagent is one node of the sub-agent tree. Parent and depth are advisory
// rendering hints; the tree may be transiently disconnected while spawn events
// are still in flight, and no operation is gated on its shape.
type Subagent struct {
	ID              string
	Label           string
	Task            string
	Status          v1.SubagentStatus
	ParentID        *string
	Depth           int
	SessionID       *int64
	ParentSessionID *int64
	CurrentTool     *string
	StartedAt       time.Time
}

// SubagentTracker maintains the set of sub-agents spawned under the active
// session, keyed by id.
type SubagentTracker struct {
	mu    sync.RWMutex
	nodes map[string]*Subagent
}

// NewSubagentTracker creates an empty tracker.
func NewSubagentTracker() *SubagentTracker {
	return &SubagentTracker{nodes: make(map[string]*Subagent)}
}

// Upsert inserts or replaces the node with the given id. A respawned id
// replaces the old node rather than duplicating it. Status defaults to
// running when empty.
func (t *SubagentTracker) Upsert(node Subagent) {
	if node.Status == "" {
		node.Status = v1.SubagentStatusRunning
	}
	if node.StartedAt.IsZero() {
		node.StartedAt = time.Now()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes[node.ID] = &node
}

// SetStatus moves the node to the given status. Unknown ids are a no-op: a
// completion can outrun its spawn on reconnect, and inventing a node from a
// status event would produce an empty husk.
func (t *SubagentTracker) SetStatus(id string, status v1.SubagentStatus) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[id]
	if !ok {
		return false
	}
	n.Status = status
	if status.Terminal() {
		n.CurrentTool = nil
	}
	return true
}

// AttachTool records the tool a sub-agent is currently invoking.
func (t *SubagentTracker) AttachTool(id, tool string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.nodes[id]; ok {
		n.CurrentTool = &tool
	}
}

// ClearTool clears the current tool after its result arrives.
func (t *SubagentTracker) ClearTool(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.nodes[id]; ok {
		n.CurrentTool = nil
	}
}

// AttachSession records the backend session id a sub-agent runs under. The
// session can become known at any point in the node's life, including after a
// terminal status.
func (t *SubagentTracker) AttachSession(id string, sessionID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.nodes[id]; ok {
		n.SessionID = &sessionID
	}
}

// CancelAllRunning moves every running node to cancelled and returns how many
// were cancelled. Used when the parent execution stops.
func (t *SubagentTracker) CancelAllRunning() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, node := range t.nodes {
		if node.Status == v1.SubagentStatusRunning || node.Status == v1.SubagentStatusPending {
			node.Status = v1.SubagentStatusCancelled
			node.CurrentTool = nil
			n++
		}
	}
	return n
}

// Dismiss removes the node. Nodes otherwise live until session reset.
func (t *SubagentTracker) Dismiss(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.nodes, id)
}

// Get returns a copy of the node.
func (t *SubagentTracker) Get(id string) (Subagent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n, ok := t.nodes[id]
	if !ok {
		return Subagent{}, false
	}
	return *n, true
}

// List returns copies of all nodes ordered by start time, oldest first.
func (t *SubagentTracker) List() []Subagent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Subagent, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Merge reconciles the tracker against an authoritative snapshot from the
// backend. Snapshot nodes are upserted; local nodes absent from the snapshot
// are dropped only when terminal — an in-flight local node may simply have
// raced the snapshot and survives until its own lifecycle events arrive.
func (t *SubagentTracker) Merge(snapshot []Subagent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	present := make(map[string]struct{}, len(snapshot))
	for i := range snapshot {
		node := snapshot[i]
		present[node.ID] = struct{}{}
		if node.Status == "" {
			node.Status = v1.SubagentStatusRunning
		}
		if existing, ok := t.nodes[node.ID]; ok {
			if node.StartedAt.IsZero() {
				node.StartedAt = existing.StartedAt
			}
			if node.CurrentTool == nil {
				node.CurrentTool = existing.CurrentTool
			}
		} else if node.StartedAt.IsZero() {
			node.StartedAt = time.Now()
		}
		t.nodes[node.ID] = &node
	}
	for id, node := range t.nodes {
		if _, ok := present[id]; ok {
			continue
		}
		if node.Status.Terminal() {
			delete(t.nodes, id)
		}
	}
}

// Reset drops every node.
func (t *SubagentTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nodes = make(map[string]*Subagent)
}
