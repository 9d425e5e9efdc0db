package protocol

import "encoding/json"

// Scope carries the optional channel/session identifiers that most event
// payloads embed. Absent fields are nil; filtering treats absence as
// "admit" (conservative inclusion), so payloads must keep them as pointers
// rather than defaulting to zero.
type Scope struct {
	ChannelID *int64 `json:"channel_id,omitempty"`
	SessionID *int64 `json:"session_id,omitempty"`
}

// Channel returns the channel id and whether it was present.
func (s Scope) Channel() (int64, bool) {
	if s.ChannelID == nil {
		return 0, false
	}
	return *s.ChannelID, true
}

// Session returns the session id and whether it was present.
func (s Scope) Session() (int64, bool) {
	if s.SessionID == nil {
		return 0, false
	}
	return *s.SessionID, true
}

// ChannelOnly builds a Scope carrying just a channel id pointer.
// Used by payloads whose session_id field is data, not scope.
func ChannelOnly(channelID *int64) Scope {
	return Scope{ChannelID: channelID}
}

// ExecutionStarted is the payload of execution.started.
type ExecutionStarted struct {
	Scope
	ExecutionID string `json:"execution_id"`
	Mode        string `json:"mode,omitempty"`
	Description string `json:"description,omitempty"`
}

// ExecutionCompleted is the payload of execution.completed.
type ExecutionCompleted struct {
	Scope
	ExecutionID string `json:"execution_id"`
}

// ExecutionStopped is the payload of execution.stopped.
type ExecutionStopped struct {
	Scope
	ExecutionID string `json:"execution_id"`
	Reason      string `json:"reason,omitempty"`
}

// SubagentSpawned is the payload of subagent.spawned.
type SubagentSpawned struct {
	Scope
	SubagentID       string  `json:"subagent_id"`
	Label            string  `json:"label"`
	Task             string  `json:"task"`
	ParentSubagentID *string `json:"parent_subagent_id,omitempty"`
	Depth            int     `json:"depth,omitempty"`
	AgentSubtype     *string `json:"agent_subtype,omitempty"`
}

// SubagentFinished is the payload of subagent.completed and subagent.failed.
type SubagentFinished struct {
	Scope
	SubagentID string `json:"subagent_id"`
	Label      string `json:"label,omitempty"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SubagentSessionReady is the payload of subagent.session_ready. Its
// session_id is the sub-agent's own (newly created) session, so it is data
// rather than filter scope; only channel_id participates in filtering.
type SubagentSessionReady struct {
	ChannelID  *int64 `json:"channel_id,omitempty"`
	SubagentID string `json:"subagent_id"`
	SessionID  int64  `json:"session_id"`
}

// SubagentToolCall is the payload of subagent.tool_call.
type SubagentToolCall struct {
	Scope
	SubagentID    string `json:"subagent_id"`
	Label         string `json:"label,omitempty"`
	ToolName      string `json:"tool_name"`
	ParamsPreview string `json:"params_preview,omitempty"`
}

// SubagentToolResult is the payload of subagent.tool_result.
type SubagentToolResult struct {
	Scope
	SubagentID     string `json:"subagent_id"`
	Label          string `json:"label,omitempty"`
	ToolName       string `json:"tool_name"`
	Success        bool   `json:"success"`
	ContentPreview string `json:"content_preview,omitempty"`
}

// ConfirmationRequired is the payload of confirmation.required.
type ConfirmationRequired struct {
	ChannelID      *int64          `json:"channel_id,omitempty"`
	ConfirmationID string          `json:"confirmation_id"`
	ToolName       string          `json:"tool_name"`
	Description    string          `json:"description,omitempty"`
	Parameters     json.RawMessage `json:"parameters,omitempty"`
	Timestamp      string          `json:"timestamp,omitempty"`
}

// ConfirmationResolved is the payload of confirmation.approved,
// confirmation.rejected and confirmation.expired.
type ConfirmationResolved struct {
	ChannelID      *int64 `json:"channel_id,omitempty"`
	ConfirmationID string `json:"confirmation_id,omitempty"`
	ToolName       string `json:"tool_name,omitempty"`
}

// TxQueueConfirmationRequired is the payload of tx_queue.confirmation_required.
type TxQueueConfirmationRequired struct {
	ChannelID      *int64 `json:"channel_id,omitempty"`
	UUID           string `json:"uuid"`
	Network        string `json:"network,omitempty"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
	Value          string `json:"value,omitempty"`
	ValueFormatted string `json:"value_formatted,omitempty"`
	Data           string `json:"data,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"`
}

// TxQueueResolved is the payload of tx_queue.confirmed and tx_queue.denied.
type TxQueueResolved struct {
	ChannelID *int64 `json:"channel_id,omitempty"`
	UUID      string `json:"uuid,omitempty"`
	TxHash    string `json:"tx_hash,omitempty"`
}

// ToolResult is the payload of tool.result. The console only renders the
// say_to_user case, deduplicated against the REST chat response by MessageID.
type ToolResult struct {
	Scope
	ChatID     *string `json:"chat_id,omitempty"`
	ToolName   string  `json:"tool_name"`
	Success    bool    `json:"success"`
	DurationMs int64   `json:"duration_ms,omitempty"`
	Content    string  `json:"content,omitempty"`
	MessageID  string  `json:"message_id,omitempty"`
}

// CronExecution is the payload of cron.execution_started_on_channel and
// cron.execution_stopped_on_channel.
type CronExecution struct {
	Scope
	JobID   int64  `json:"job_id,omitempty"`
	JobName string `json:"job_name,omitempty"`
}

// SessionCreated is the payload of session.created.
type SessionCreated struct {
	ChannelID *int64 `json:"channel_id,omitempty"`
	SessionID int64  `json:"session_id"`
}
