package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/starkbot/console/internal/common/logger"
)

// ExecutionPhase is the coarse state of the agent loop for this session.
type ExecutionPhase string

const (
	PhaseIdle     ExecutionPhase = "idle"
	PhaseRunning  ExecutionPhase = "running"
	PhaseStopping ExecutionPhase = "stopping"
)

// ExecutionTracker follows the lifecycle of the backend's agent execution for
// one session. Transitions are fenced by execution id: a completed or stopped
// event for an execution we are not tracking is the stale tail of a superseded
// run and must not disturb the current one.
type ExecutionTracker struct {
	mu          sync.RWMutex
	phase       ExecutionPhase
	executionID *string
	cronActive  bool
	log         *logger.Logger
}

// NewExecutionTracker starts in the idle phase.
func NewExecutionTracker(log *logger.Logger) *ExecutionTracker {
	return &ExecutionTracker{phase: PhaseIdle, log: log.WithComponent("execution")}
}

// Phase returns the current phase.
func (t *ExecutionTracker) Phase() ExecutionPhase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase
}

// ExecutionID returns the tracked execution id, if any.
func (t *ExecutionTracker) ExecutionID() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.executionID == nil {
		return "", false
	}
	return *t.executionID, true
}

// Running reports whether an execution is in flight (running or stopping).
func (t *ExecutionTracker) Running() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.phase != PhaseIdle
}

// CronActive reports whether a cron-triggered execution is active on the
// channel.
func (t *ExecutionTracker) CronActive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cronActive
}

// Start moves to running and adopts the execution id, replacing whatever was
// tracked before. A fresh start always clears a pending stop.
func (t *ExecutionTracker) Start(executionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = PhaseRunning
	t.executionID = &executionID
}

// Finish moves to idle if the finished execution matches the tracked one (or
// if nothing is tracked). It reports whether the event was applied; a false
// return means the event was fenced off as stale.
func (t *ExecutionTracker) Finish(executionID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.executionID != nil && *t.executionID != executionID {
		t.log.Debug("ignoring finish for superseded execution",
			zap.String("tracked", *t.executionID),
			zap.String("event", executionID))
		return false
	}
	t.phase = PhaseIdle
	t.executionID = nil
	t.cronActive = false
	return true
}

// PredictStopping optimistically moves to stopping ahead of the stop request
// and returns the previous phase for rollback.
func (t *ExecutionTracker) PredictStopping() ExecutionPhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.phase
	t.phase = PhaseStopping
	return prev
}

// Rollback restores the phase after a failed stop request. If the backend has
// meanwhile moved us to idle the rollback is discarded; the server's word
// stands.
func (t *ExecutionTracker) Rollback(prev ExecutionPhase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != PhaseStopping {
		return
	}
	t.phase = prev
}

// ForceRunning adopts the backend's authoritative answer from the execution
// status query, overriding local idle. Used by bootstrap after (re)connect.
func (t *ExecutionTracker) ForceRunning(executionID *string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = PhaseRunning
	t.executionID = executionID
}

// SetCronActive flips the cron-execution indicator.
func (t *ExecutionTracker) SetCronActive(active bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cronActive = active
}

// Reset returns the tracker to idle. Called on session reset.
func (t *ExecutionTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phase = PhaseIdle
	t.executionID = nil
	t.cronActive = false
}
