package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/starkbot/console/internal/chat/session"
	"github.com/starkbot/console/internal/common/errors"
	"github.com/starkbot/console/internal/common/logger"
)

const timeFormat = time.RFC3339

// Connectivity reports whether the gateway socket is up. The transport
// implements it.
type Connectivity interface {
	Connected() bool
}

// Handler contains the console's HTTP handlers.
type Handler struct {
	monitor *session.Monitor
	conn    Connectivity
	logger  *logger.Logger
}

// NewHandler creates an API handler around the session monitor.
func NewHandler(monitor *session.Monitor, conn Connectivity, log *logger.Logger) *Handler {
	return &Handler{
		monitor: monitor,
		conn:    conn,
		logger:  log,
	}
}

// GetStatus returns the reconciled execution state.
// GET /api/v1/session/status
func (h *Handler) GetStatus(c *gin.Context) {
	st := h.monitor.Status()
	resp := SessionStatusResponse{
		Phase:       string(st.Phase),
		ExecutionID: st.ExecutionID,
		CronActive:  st.CronActive,
		SessionID:   st.SessionID,
	}
	if h.conn != nil {
		resp.Connected = h.conn.Connected()
	}
	c.JSON(http.StatusOK, resp)
}

// ListSubagents returns the sub-agent tree, oldest first.
// GET /api/v1/session/subagents
func (h *Handler) ListSubagents(c *gin.Context) {
	nodes := h.monitor.Subagents()
	out := make([]SubagentResponse, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, subagentToResponse(n))
	}
	c.JSON(http.StatusOK, gin.H{"subagents": out})
}

// GetConfirmations returns the pending approvals.
// GET /api/v1/session/confirmations
func (h *Handler) GetConfirmations(c *gin.Context) {
	var resp ConfirmationsResponse
	if pc, ok := h.monitor.PendingConfirmation(); ok {
		resp.Confirmation = &ConfirmationResponse{
			ConfirmationID: pc.ConfirmationID,
			ToolName:       pc.ToolName,
			Description:    pc.Description,
			Parameters:     pc.Parameters,
			ReceivedAt:     pc.ReceivedAt.Format(timeFormat),
		}
	}
	if tx, ok := h.monitor.PendingTx(); ok {
		resp.Transaction = &TransactionResponse{
			UUID:           tx.UUID,
			Network:        tx.Network,
			From:           tx.From,
			To:             tx.To,
			Value:          tx.Value,
			ValueFormatted: tx.ValueFormatted,
			ReceivedAt:     tx.ReceivedAt.Format(timeFormat),
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ListMessages returns the transcript of the active session.
// GET /api/v1/session/messages?limit=
func (h *Handler) ListMessages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			appErr := errors.BadRequest("limit must be a non-negative integer")
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
		limit = n
	}

	messages, err := h.monitor.Messages(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load transcript", zap.Error(err))
		appErr := errors.InternalError("failed to load transcript", err)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageToResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// SendMessage posts a user message to the backend.
// POST /api/v1/session/messages
func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	replies, err := h.monitor.Send(c.Request.Context(), req.Message)
	if err != nil {
		h.respondError(c, err, "failed to send message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": replies})
}

// StopExecution requests a stop of the running execution.
// POST /api/v1/session/stop
func (h *Handler) StopExecution(c *gin.Context) {
	if err := h.monitor.Stop(c.Request.Context()); err != nil {
		h.respondError(c, err, "failed to stop execution")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CancelSubagents cancels the session's running sub-agents.
// POST /api/v1/session/subagents/cancel
func (h *Handler) CancelSubagents(c *gin.Context) {
	if err := h.monitor.CancelSubagents(c.Request.Context()); err != nil {
		h.respondError(c, err, "failed to cancel sub-agents")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResolveConfirmation approves or rejects the pending tool confirmation.
// POST /api/v1/session/confirmations/resolve
func (h *Handler) ResolveConfirmation(c *gin.Context) {
	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if err := h.monitor.ConfirmPendingTool(c.Request.Context(), req.Approve); err != nil {
		h.respondError(c, err, "failed to resolve confirmation")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResolveTransaction confirms or denies the pending transaction.
// POST /api/v1/session/txqueue/resolve
func (h *Handler) ResolveTransaction(c *gin.Context) {
	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if err := h.monitor.ResolvePendingTx(c.Request.Context(), req.Approve); err != nil {
		h.respondError(c, err, "failed to resolve transaction")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// NewSession opens a fresh backend session and resets the local state.
// POST /api/v1/session/new
func (h *Handler) NewSession(c *gin.Context) {
	sessionID, err := h.monitor.NewSession(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "failed to create session")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": sessionID})
}

// respondError maps an error to its HTTP shape, preserving AppError status
// codes.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	if appErr := errors.AsAppError(err); appErr != nil {
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	h.logger.Error(fallback, zap.Error(err))
	appErr := errors.InternalError(fallback, err)
	c.JSON(appErr.HTTPStatus, appErr)
}
