// Package backend is a typed client for the Starkbot backend's REST API. It
// mirrors the backend controllers one method per endpoint and stays thin:
// reconciliation of the answers lives in the session package.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/starkbot/console/internal/common/errors"
	v1 "github.com/starkbot/console/pkg/api/v1"
)

// Client talks to one backend instance with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the backend at baseURL. timeout bounds each
// request; zero means 30s.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// do performs one JSON request. A non-2xx reply or transport failure comes
// back as an upstream AppError carrying the backend's error message when one
// was provided.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Upstream("backend unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Upstream("failed to read backend response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var status v1.StatusResponse
		if json.Unmarshal(data, &status) == nil && status.Error != "" {
			return apperrors.Upstream(status.Error, nil)
		}
		return apperrors.Upstream(fmt.Sprintf("backend returned %s for %s %s", resp.Status, method, path), nil)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return apperrors.Upstream("failed to decode backend response", err)
		}
	}
	return nil
}

// SendChat posts a user message and returns the assistant's reply messages.
func (c *Client) SendChat(ctx context.Context, message string, sessionID *int64) (*v1.ChatResponse, error) {
	req := v1.ChatRequest{Message: message, SessionID: sessionID}
	var resp v1.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return nil, err
	}
	if !resp.Success && resp.Error != "" {
		return nil, apperrors.Upstream(resp.Error, nil)
	}
	return &resp, nil
}

// StopExecution asks the backend to stop the running execution.
func (c *Client) StopExecution(ctx context.Context) (*v1.StopResponse, error) {
	var resp v1.StopResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat/stop", struct{}{}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "stop rejected"
		}
		return nil, apperrors.Upstream(msg, nil)
	}
	return &resp, nil
}

// ExecutionStatus queries whether an execution is running.
func (c *Client) ExecutionStatus(ctx context.Context) (*v1.ExecutionStatusResponse, error) {
	var resp v1.ExecutionStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/chat/execution-status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Subagents lists the sub-agents of the given session, or of all sessions on
// the channel when sessionID is nil.
func (c *Client) Subagents(ctx context.Context, sessionID *int64) ([]v1.SubagentInfo, error) {
	path := "/api/chat/subagents"
	if sessionID != nil {
		path += "?" + url.Values{"session_id": {strconv.FormatInt(*sessionID, 10)}}.Encode()
	}
	var resp v1.SubagentsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Subagents, nil
}

// CancelSubagents asks the backend to cancel the session's running sub-agents.
func (c *Client) CancelSubagents(ctx context.Context, sessionID *int64) error {
	req := v1.CancelSubagentsRequest{SessionID: sessionID}
	var resp v1.StatusResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat/subagents/cancel", req, &resp); err != nil {
		return err
	}
	if !resp.Success && resp.Error != "" {
		return apperrors.Upstream(resp.Error, nil)
	}
	return nil
}

// CurrentSession returns the backend's current web session id.
func (c *Client) CurrentSession(ctx context.Context) (*v1.SessionResponse, error) {
	var resp v1.SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/chat/session", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// NewSession asks the backend to open a fresh web session.
func (c *Client) NewSession(ctx context.Context) (*v1.SessionResponse, error) {
	var resp v1.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat/session/new", struct{}{}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "session creation rejected"
		}
		return nil, apperrors.Upstream(msg, nil)
	}
	return &resp, nil
}

// ConfirmTool approves or rejects a pending tool confirmation.
func (c *Client) ConfirmTool(ctx context.Context, confirmationID string, approve bool) error {
	action := "cancel"
	if approve {
		action = "confirm"
	}
	path := fmt.Sprintf("/api/confirmations/%s/%s", url.PathEscape(confirmationID), action)
	var resp v1.StatusResponse
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return err
	}
	if !resp.Success && resp.Error != "" {
		return apperrors.Upstream(resp.Error, nil)
	}
	return nil
}

// ResolveTx confirms or denies a queued transaction.
func (c *Client) ResolveTx(ctx context.Context, txUUID string, approve bool) error {
	action := "deny"
	if approve {
		action = "confirm"
	}
	path := fmt.Sprintf("/api/txqueue/%s/%s", url.PathEscape(txUUID), action)
	var resp v1.StatusResponse
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &resp); err != nil {
		return err
	}
	if !resp.Success && resp.Error != "" {
		return apperrors.Upstream(resp.Error, nil)
	}
	return nil
}
