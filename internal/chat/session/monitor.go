package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/starkbot/console/internal/common/errors"
	"github.com/starkbot/console/internal/common/logger"
	"github.com/starkbot/console/internal/history"
	v1 "github.com/starkbot/console/pkg/api/v1"
	"github.com/starkbot/console/pkg/gateway/protocol"
)

// Backend is the slice of the REST client the monitor drives. Commands go out
// through these calls and their effects come back as gateway events observed
// by the same trackers.
type Backend interface {
	SendChat(ctx context.Context, message string, sessionID *int64) (*v1.ChatResponse, error)
	StopExecution(ctx context.Context) (*v1.StopResponse, error)
	ExecutionStatus(ctx context.Context) (*v1.ExecutionStatusResponse, error)
	Subagents(ctx context.Context, sessionID *int64) ([]v1.SubagentInfo, error)
	CancelSubagents(ctx context.Context, sessionID *int64) error
	CurrentSession(ctx context.Context) (*v1.SessionResponse, error)
	NewSession(ctx context.Context) (*v1.SessionResponse, error)
	ConfirmTool(ctx context.Context, confirmationID string, approve bool) error
	ResolveTx(ctx context.Context, txUUID string, approve bool) error
}

// Status is a read-only snapshot of the execution state.
type Status struct {
	Phase       ExecutionPhase `json:"phase"`
	ExecutionID *string        `json:"execution_id,omitempty"`
	CronActive  bool           `json:"cron_active"`
	SessionID   *int64         `json:"session_id,omitempty"`
}

// Monitor reconstructs the live state of one chat session from gateway events
// and backend queries. All mutation happens inside event handlers that run to
// completion on the transport's read goroutine; the trackers' own locks make
// the read-side snapshots safe from other goroutines.
type Monitor struct {
	scope   *Scope
	filter  *Filter
	exec    *ExecutionTracker
	subs    *SubagentTracker
	confirm *Slot[PendingConfirmation]
	tx      *Slot[TxConfirmation]
	dedupe  *MessageDeduper
	router  *Router
	backend Backend
	store   history.Store
	log     *logger.Logger

	subscriptions []*Subscription
}

// NewMonitor wires the trackers to the router and returns the assembled
// monitor. The instance is scoped to one session; nothing is process-global.
func NewMonitor(backend Backend, store history.Store, log *logger.Logger) *Monitor {
	scope := NewScope()
	m := &Monitor{
		scope:   scope,
		filter:  NewFilter(WebChannelID, scope),
		exec:    NewExecutionTracker(log),
		subs:    NewSubagentTracker(),
		confirm: NewSlot[PendingConfirmation](),
		tx:      NewSlot[TxConfirmation](),
		dedupe:  NewMessageDeduper(0),
		router:  NewRouter(log),
		backend: backend,
		store:   store,
		log:     log.WithComponent("monitor"),
	}
	m.attach()
	return m
}

// Dispatch feeds one decoded gateway event into the router. The transport
// calls this from its read pump.
func (m *Monitor) Dispatch(event string, data []byte) {
	m.router.Dispatch(event, data)
}

// Router exposes the router for additional consumers (the console API's
// event stream, tests).
func (m *Monitor) Router() *Router {
	return m.router
}

// attach registers every topic handler. The per-topic filter policy is
// deliberate and asymmetric: lifecycle topics (execution.*, spawned,
// completed, failed) are scoped to channel+session, while progress and
// approval topics are scoped to channel only, matching what the gateway
// actually stamps on each topic.
func (m *Monitor) attach() {
	sub := func(s *Subscription) { m.subscriptions = append(m.subscriptions, s) }

	sub(Subscribe(m.router, protocol.EventExecutionStarted, func(ev protocol.ExecutionStarted) {
		if !m.filter.ActiveSession(ev.Scope) {
			return
		}
		m.exec.Start(ev.ExecutionID)
	}))
	sub(Subscribe(m.router, protocol.EventExecutionCompleted, func(ev protocol.ExecutionCompleted) {
		if !m.filter.ActiveSession(ev.Scope) {
			return
		}
		m.exec.Finish(ev.ExecutionID)
	}))
	sub(Subscribe(m.router, protocol.EventExecutionStopped, func(ev protocol.ExecutionStopped) {
		if !m.filter.ActiveSession(ev.Scope) {
			return
		}
		if m.exec.Finish(ev.ExecutionID) {
			if n := m.subs.CancelAllRunning(); n > 0 {
				m.log.Debug("cancelled running sub-agents after stop", zap.Int("count", n))
			}
		}
	}))

	sub(Subscribe(m.router, protocol.EventSubagentSpawned, func(ev protocol.SubagentSpawned) {
		if !m.filter.ActiveSession(ev.Scope) {
			return
		}
		m.subs.Upsert(Subagent{
			ID:              ev.SubagentID,
			Label:           ev.Label,
			Task:            ev.Task,
			Status:          v1.SubagentStatusRunning,
			ParentID:        ev.ParentSubagentID,
			Depth:           ev.Depth,
			ParentSessionID: ev.Scope.SessionID,
			StartedAt:       time.Now(),
		})
	}))
	sub(Subscribe(m.router, protocol.EventSubagentCompleted, func(ev protocol.SubagentFinished) {
		if !m.filter.ActiveSession(ev.Scope) {
			return
		}
		m.subs.SetStatus(ev.SubagentID, v1.SubagentStatusCompleted)
	}))
	sub(Subscribe(m.router, protocol.EventSubagentFailed, func(ev protocol.SubagentFinished) {
		if !m.filter.ActiveSession(ev.Scope) {
			return
		}
		m.subs.SetStatus(ev.SubagentID, v1.SubagentStatusFailed)
	}))
	// session_ready carries the child's session id as payload, so it cannot
	// be session-filtered; channel scope only.
	sub(Subscribe(m.router, protocol.EventSubagentSessionReady, func(ev protocol.SubagentSessionReady) {
		if !m.filter.ActiveChannel(protocol.ChannelOnly(ev.ChannelID)) {
			return
		}
		m.subs.AttachSession(ev.SubagentID, ev.SessionID)
	}))
	sub(Subscribe(m.router, protocol.EventSubagentToolCall, func(ev protocol.SubagentToolCall) {
		if !m.filter.ActiveChannel(ev.Scope) {
			return
		}
		m.subs.AttachTool(ev.SubagentID, ev.ToolName)
	}))
	sub(Subscribe(m.router, protocol.EventSubagentToolResult, func(ev protocol.SubagentToolResult) {
		if !m.filter.ActiveChannel(ev.Scope) {
			return
		}
		m.subs.ClearTool(ev.SubagentID)
	}))

	sub(Subscribe(m.router, protocol.EventConfirmationRequired, func(ev protocol.ConfirmationRequired) {
		if !m.filter.ActiveChannel(protocol.ChannelOnly(ev.ChannelID)) {
			return
		}
		m.confirm.Require(PendingConfirmation{
			ConfirmationID: ev.ConfirmationID,
			ToolName:       ev.ToolName,
			Description:    ev.Description,
			Parameters:     ev.Parameters,
			ReceivedAt:     time.Now(),
		})
	}))
	clearConfirm := func(ev protocol.ConfirmationResolved) {
		if !m.filter.ActiveChannel(protocol.ChannelOnly(ev.ChannelID)) {
			return
		}
		m.confirm.Resolve()
	}
	sub(Subscribe(m.router, protocol.EventConfirmationApproved, clearConfirm))
	sub(Subscribe(m.router, protocol.EventConfirmationRejected, clearConfirm))
	sub(Subscribe(m.router, protocol.EventConfirmationExpired, clearConfirm))

	sub(Subscribe(m.router, protocol.EventTxQueueConfirmationRequired, func(ev protocol.TxQueueConfirmationRequired) {
		if !m.filter.ActiveChannel(protocol.ChannelOnly(ev.ChannelID)) {
			return
		}
		m.tx.Require(TxConfirmation{
			UUID:           ev.UUID,
			Network:        ev.Network,
			From:           ev.From,
			To:             ev.To,
			Value:          ev.Value,
			ValueFormatted: ev.ValueFormatted,
			Data:           ev.Data,
			ReceivedAt:     time.Now(),
		})
	}))
	clearTx := func(ev protocol.TxQueueResolved) {
		if !m.filter.ActiveChannel(protocol.ChannelOnly(ev.ChannelID)) {
			return
		}
		m.tx.Resolve()
	}
	sub(Subscribe(m.router, protocol.EventTxQueueConfirmed, clearTx))
	sub(Subscribe(m.router, protocol.EventTxQueueDenied, clearTx))

	sub(Subscribe(m.router, protocol.EventToolResult, func(ev protocol.ToolResult) {
		if !m.filter.ActiveChannel(ev.Scope) {
			return
		}
		if ev.ToolName != "say_to_user" || !ev.Success {
			return
		}
		m.recordAssistantMessage(ev.Content, ev.MessageID)
	}))

	sub(Subscribe(m.router, protocol.EventCronExecutionStarted, func(ev protocol.CronExecution) {
		if !m.filter.ActiveChannel(ev.Scope) {
			return
		}
		m.exec.SetCronActive(true)
	}))
	sub(Subscribe(m.router, protocol.EventCronExecutionStopped, func(ev protocol.CronExecution) {
		if !m.filter.ActiveChannel(ev.Scope) {
			return
		}
		m.exec.SetCronActive(false)
	}))

	sub(Subscribe(m.router, protocol.EventSessionCreated, func(ev protocol.SessionCreated) {
		if !m.filter.ActiveChannel(protocol.ChannelOnly(ev.ChannelID)) {
			return
		}
		m.scope.AttachSessionID(ev.SessionID)
	}))
}

// recordAssistantMessage writes an assistant message through the idempotency
// cache into the transcript. The same message can arrive as a tool.result
// push and inside the REST chat response, in either order.
func (m *Monitor) recordAssistantMessage(content, messageID string) bool {
	if !m.dedupe.Observe(messageID) {
		return false
	}
	msg := history.Message{
		SessionToken: m.scope.Token(),
		Role:         history.RoleAssistant,
		Content:      content,
	}
	if messageID != "" {
		msg.MessageID = &messageID
	}
	if err := m.store.Append(context.Background(), msg); err != nil {
		m.log.Error("failed to persist assistant message", zap.Error(err))
	}
	return true
}

// Send posts a user message and records both sides of the exchange. Assistant
// messages already seen via the websocket push are not recorded twice.
func (m *Monitor) Send(ctx context.Context, message string) ([]v1.ChatMessage, error) {
	if message == "" {
		return nil, apperrors.BadRequest("message must not be empty")
	}
	if err := m.store.Append(ctx, history.Message{
		SessionToken: m.scope.Token(),
		Role:         history.RoleUser,
		Content:      message,
	}); err != nil {
		m.log.Error("failed to persist user message", zap.Error(err))
	}

	var sid *int64
	if id, ok := m.scope.SessionID(); ok {
		sid = &id
	}
	resp, err := m.backend.SendChat(ctx, message, sid)
	if err != nil {
		return nil, err
	}
	for _, cm := range resp.Messages {
		id := ""
		if cm.MessageID != nil {
			id = *cm.MessageID
		}
		m.recordAssistantMessage(cm.Content, id)
	}
	return resp.Messages, nil
}

// Stop requests a stop of the running execution. The phase moves to stopping
// optimistically; if the request itself fails the previous phase is restored
// and the error surfaced. No local timeout ever clears stopping: only the
// backend's stopped/completed event does.
func (m *Monitor) Stop(ctx context.Context) error {
	if !m.exec.Running() {
		return apperrors.Conflict("no execution is running")
	}
	prev := m.exec.PredictStopping()
	if _, err := m.backend.StopExecution(ctx); err != nil {
		m.exec.Rollback(prev)
		return err
	}
	return nil
}

// ConfirmPendingTool approves or rejects the pending tool confirmation.
func (m *Monitor) ConfirmPendingTool(ctx context.Context, approve bool) error {
	pending, ok := m.confirm.Pending()
	if !ok {
		return apperrors.NotFoundMessage("no pending confirmation")
	}
	if err := m.backend.ConfirmTool(ctx, pending.ConfirmationID, approve); err != nil {
		return err
	}
	// The gateway will also broadcast the resolution; clearing here keeps the
	// local view responsive and the event clear is idempotent.
	m.confirm.Resolve()
	return nil
}

// ResolvePendingTx confirms or denies the pending transaction.
func (m *Monitor) ResolvePendingTx(ctx context.Context, approve bool) error {
	pending, ok := m.tx.Pending()
	if !ok {
		return apperrors.NotFoundMessage("no pending transaction")
	}
	if err := m.backend.ResolveTx(ctx, pending.UUID, approve); err != nil {
		return err
	}
	m.tx.Resolve()
	return nil
}

// CancelSubagents asks the backend to cancel the session's running sub-agents
// and mirrors the cancellation locally.
func (m *Monitor) CancelSubagents(ctx context.Context) error {
	var sid *int64
	if id, ok := m.scope.SessionID(); ok {
		sid = &id
	}
	if err := m.backend.CancelSubagents(ctx, sid); err != nil {
		return err
	}
	m.subs.CancelAllRunning()
	return nil
}

// NewSession opens a fresh backend session and resets every tracker, the
// dedupe set and the scope token. The old transcript stays in the store under
// the old token.
func (m *Monitor) NewSession(ctx context.Context) (*int64, error) {
	resp, err := m.backend.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	m.reset()
	if resp.SessionID != nil {
		m.scope.AttachSessionID(*resp.SessionID)
	}
	return resp.SessionID, nil
}

func (m *Monitor) reset() {
	m.scope.Reset()
	m.exec.Reset()
	m.subs.Reset()
	m.confirm.Reset()
	m.tx.Reset()
	m.dedupe.Reset()
}

// Scope returns the session scope.
func (m *Monitor) Scope() *Scope {
	return m.scope
}

// Status returns a snapshot of the execution state.
func (m *Monitor) Status() Status {
	st := Status{
		Phase:      m.exec.Phase(),
		CronActive: m.exec.CronActive(),
	}
	if id, ok := m.exec.ExecutionID(); ok {
		st.ExecutionID = &id
	}
	if sid, ok := m.scope.SessionID(); ok {
		st.SessionID = &sid
	}
	return st
}

// Subagents returns a snapshot of the sub-agent tree, oldest first.
func (m *Monitor) Subagents() []Subagent {
	return m.subs.List()
}

// PendingConfirmation returns the pending tool confirmation, if any.
func (m *Monitor) PendingConfirmation() (PendingConfirmation, bool) {
	return m.confirm.Pending()
}

// PendingTx returns the pending transaction approval, if any.
func (m *Monitor) PendingTx() (TxConfirmation, bool) {
	return m.tx.Pending()
}

// Messages returns the transcript of the current session, oldest first.
func (m *Monitor) Messages(ctx context.Context, limit int) ([]history.Message, error) {
	return m.store.List(ctx, m.scope.Token(), limit)
}

// Close detaches every handler from the router.
func (m *Monitor) Close() {
	for _, s := range m.subscriptions {
		s.Unsubscribe()
	}
	m.subscriptions = nil
}
