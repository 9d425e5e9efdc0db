package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	v1 "github.com/starkbot/console/pkg/api/v1"
)

// Reconcile resyncs the trackers against the backend's authoritative answers.
// The transport calls this on every connect and reconnect: push events missed
// while disconnected cannot be replayed, so the state is rebuilt from queries
// instead.
//
// Both queries are best-effort. A failure is logged and the in-memory state
// kept as-is; the next reconnect tries again.
func (m *Monitor) Reconcile(ctx context.Context) {
	m.reconcileSession(ctx)
	m.reconcileExecution(ctx)
	m.reconcileSubagents(ctx)
}

func (m *Monitor) reconcileSession(ctx context.Context) {
	resp, err := m.backend.CurrentSession(ctx)
	if err != nil {
		m.log.Warn("session query failed during reconcile", zap.Error(err))
		return
	}
	if resp.SessionID != nil {
		m.scope.AttachSessionID(*resp.SessionID)
	}
}

func (m *Monitor) reconcileExecution(ctx context.Context) {
	status, err := m.backend.ExecutionStatus(ctx)
	if err != nil {
		m.log.Warn("execution status query failed during reconcile", zap.Error(err))
		return
	}
	if status.Running {
		// The query is ground truth: adopt running even over local idle. The
		// execution.started event may have been lost while disconnected.
		m.exec.ForceRunning(status.ExecutionID)
	}
	// A not-running answer is left to the event stream: the terminal event
	// for a locally tracked execution either already raced ahead of this
	// query or is still on its way through the freshly opened socket.
}

func (m *Monitor) reconcileSubagents(ctx context.Context) {
	var sid *int64
	if id, ok := m.scope.SessionID(); ok {
		sid = &id
	}
	infos, err := m.backend.Subagents(ctx, sid)
	if err != nil {
		m.log.Warn("subagent query failed during reconcile", zap.Error(err))
		return
	}
	snapshot := make([]Subagent, 0, len(infos))
	for _, info := range infos {
		snapshot = append(snapshot, subagentFromInfo(info))
	}
	m.subs.Merge(snapshot)
}

func subagentFromInfo(info v1.SubagentInfo) Subagent {
	node := Subagent{
		ID:              info.ID,
		Label:           info.Label,
		Task:            info.Task,
		Status:          info.Status,
		SessionID:       info.SessionID,
		ParentSessionID: info.ParentSessionID,
	}
	if info.StartedAt != "" {
		if t, err := time.Parse(time.RFC3339, info.StartedAt); err == nil {
			node.StartedAt = t
		}
	}
	return node
}
