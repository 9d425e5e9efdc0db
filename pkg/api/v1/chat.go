package v1

// SubagentStatus represents the lifecycle state of a sub-agent
type SubagentStatus string

const (
	SubagentStatusPending   SubagentStatus = "pending"
	SubagentStatusRunning   SubagentStatus = "running"
	SubagentStatusCompleted SubagentStatus = "completed"
	SubagentStatusFailed    SubagentStatus = "failed"
	SubagentStatusCancelled SubagentStatus = "cancelled"
)

// Terminal reports whether the status is a final state.
func (s SubagentStatus) Terminal() bool {
	switch s {
	case SubagentStatusCompleted, SubagentStatusFailed, SubagentStatusCancelled:
		return true
	}
	return false
}

// ChatRequest is the body for POST /api/chat
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID *int64 `json:"session_id,omitempty"`
}

// ChatResponse is the reply of POST /api/chat
type ChatResponse struct {
	Success  bool         `json:"success"`
	Messages []ChatMessage `json:"messages,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// ChatMessage is one assistant message in a chat response
type ChatMessage struct {
	Content   string  `json:"content"`
	MessageID *string `json:"message_id,omitempty"`
}

// StopResponse is the reply of POST /api/chat/stop
type StopResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ExecutionStatusResponse is the reply of GET /api/chat/execution-status
type ExecutionStatusResponse struct {
	Running     bool    `json:"running"`
	ExecutionID *string `json:"execution_id,omitempty"`
}

// SubagentInfo describes one sub-agent in GET /api/chat/subagents
type SubagentInfo struct {
	ID              string         `json:"id"`
	Label           string         `json:"label"`
	Task            string         `json:"task"`
	Status          SubagentStatus `json:"status"`
	StartedAt       string         `json:"started_at"`
	SessionID       *int64         `json:"session_id,omitempty"`
	ParentSessionID *int64         `json:"parent_session_id,omitempty"`
}

// SubagentsResponse is the reply of GET /api/chat/subagents
type SubagentsResponse struct {
	Subagents []SubagentInfo `json:"subagents"`
}

// CancelSubagentsRequest is the body for POST /api/chat/subagents/cancel
type CancelSubagentsRequest struct {
	SessionID *int64 `json:"session_id,omitempty"`
}

// SessionResponse is the reply of GET /api/chat/session and
// POST /api/chat/session/new
type SessionResponse struct {
	Success   bool   `json:"success"`
	SessionID *int64 `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StatusResponse is the generic {success,message?,error?} reply shape
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
