package api

import (
	"encoding/json"

	"github.com/starkbot/console/internal/chat/session"
	"github.com/starkbot/console/internal/history"
)

// SendMessageRequest posts a user message to the active session.
type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// ApprovalRequest carries the user's approve/reject decision.
type ApprovalRequest struct {
	Approve bool `json:"approve"`
}

// EnabledRequest toggles an admin resource on or off.
type EnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// APIKeyRequest stores a credential for an external service.
type APIKeyRequest struct {
	Service string `json:"service" binding:"required"`
	Value   string `json:"value" binding:"required"`
}

// Response types

// SessionStatusResponse mirrors the execution tracker snapshot.
type SessionStatusResponse struct {
	Phase       string  `json:"phase"`
	ExecutionID *string `json:"execution_id,omitempty"`
	CronActive  bool    `json:"cron_active"`
	SessionID   *int64  `json:"session_id,omitempty"`
	Connected   bool    `json:"connected"`
}

// SubagentResponse represents one sub-agent node.
type SubagentResponse struct {
	ID              string  `json:"id"`
	Label           string  `json:"label"`
	Task            string  `json:"task"`
	Status          string  `json:"status"`
	ParentID        *string `json:"parent_id,omitempty"`
	Depth           int     `json:"depth"`
	SessionID       *int64  `json:"session_id,omitempty"`
	ParentSessionID *int64  `json:"parent_session_id,omitempty"`
	CurrentTool     *string `json:"current_tool,omitempty"`
	StartedAt       string  `json:"started_at"`
}

// ConfirmationsResponse lists the pending approvals (at most one of each
// kind).
type ConfirmationsResponse struct {
	Confirmation *ConfirmationResponse `json:"confirmation,omitempty"`
	Transaction  *TransactionResponse  `json:"transaction,omitempty"`
}

// ConfirmationResponse is a pending tool confirmation.
type ConfirmationResponse struct {
	ConfirmationID string          `json:"confirmation_id"`
	ToolName       string          `json:"tool_name"`
	Description    string          `json:"description,omitempty"`
	Parameters     json.RawMessage `json:"parameters,omitempty"`
	ReceivedAt     string          `json:"received_at"`
}

// TransactionResponse is a pending transaction approval.
type TransactionResponse struct {
	UUID           string `json:"uuid"`
	Network        string `json:"network,omitempty"`
	From           string `json:"from,omitempty"`
	To             string `json:"to,omitempty"`
	Value          string `json:"value,omitempty"`
	ValueFormatted string `json:"value_formatted,omitempty"`
	ReceivedAt     string `json:"received_at"`
}

// MessageResponse is one transcript entry.
type MessageResponse struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	MessageID *string `json:"message_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}

func subagentToResponse(n session.Subagent) SubagentResponse {
	return SubagentResponse{
		ID:              n.ID,
		Label:           n.Label,
		Task:            n.Task,
		Status:          string(n.Status),
		ParentID:        n.ParentID,
		Depth:           n.Depth,
		SessionID:       n.SessionID,
		ParentSessionID: n.ParentSessionID,
		CurrentTool:     n.CurrentTool,
		StartedAt:       n.StartedAt.Format(timeFormat),
	}
}

func messageToResponse(m history.Message) MessageResponse {
	return MessageResponse{
		Role:      string(m.Role),
		Content:   m.Content,
		MessageID: m.MessageID,
		CreatedAt: m.CreatedAt.Format(timeFormat),
	}
}
