package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	apperrors "github.com/starkbot/console/internal/common/errors"
	v1 "github.com/starkbot/console/pkg/api/v1"
)

// Admin wrappers for the backend's configuration endpoints. These are plain
// pass-throughs; the console exposes them for tooling and does not reconcile
// their state.

// ListChannels returns the configured messaging channels.
func (c *Client) ListChannels(ctx context.Context) ([]v1.Channel, error) {
	var out []v1.Channel
	if err := c.do(ctx, http.MethodGet, "/api/channels", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetChannelEnabled toggles a channel.
func (c *Client) SetChannelEnabled(ctx context.Context, id int64, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.statusCall(ctx, http.MethodPut, fmt.Sprintf("/api/channels/%d", id), body)
}

// ListSchedules returns the cron schedules.
func (c *Client) ListSchedules(ctx context.Context) ([]v1.Schedule, error) {
	var out []v1.Schedule
	if err := c.do(ctx, http.MethodGet, "/api/schedules", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSchedule adds a cron schedule.
func (c *Client) CreateSchedule(ctx context.Context, req v1.ScheduleRequest) error {
	return c.statusCall(ctx, http.MethodPost, "/api/schedules", req)
}

// UpdateSchedule replaces a cron schedule.
func (c *Client) UpdateSchedule(ctx context.Context, id int64, req v1.ScheduleRequest) error {
	return c.statusCall(ctx, http.MethodPut, fmt.Sprintf("/api/schedules/%d", id), req)
}

// DeleteSchedule removes a cron schedule.
func (c *Client) DeleteSchedule(ctx context.Context, id int64) error {
	return c.statusCall(ctx, http.MethodDelete, fmt.Sprintf("/api/schedules/%d", id), nil)
}

// ListMemories returns stored long-term memories.
func (c *Client) ListMemories(ctx context.Context) ([]v1.Memory, error) {
	var out []v1.Memory
	if err := c.do(ctx, http.MethodGet, "/api/memories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMemory stores a memory entry.
func (c *Client) CreateMemory(ctx context.Context, req v1.MemoryRequest) error {
	return c.statusCall(ctx, http.MethodPost, "/api/memories", req)
}

// DeleteMemory removes a memory entry.
func (c *Client) DeleteMemory(ctx context.Context, id int64) error {
	return c.statusCall(ctx, http.MethodDelete, fmt.Sprintf("/api/memories/%d", id), nil)
}

// ListAPIKeys returns the stored (masked) API keys.
func (c *Client) ListAPIKeys(ctx context.Context) ([]v1.APIKey, error) {
	var out []v1.APIKey
	if err := c.do(ctx, http.MethodGet, "/api/keys", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PutAPIKey stores a credential for a service.
func (c *Client) PutAPIKey(ctx context.Context, service, value string) error {
	body := v1.APIKey{Service: service, Value: value}
	return c.statusCall(ctx, http.MethodPost, "/api/keys", body)
}

// DeleteAPIKey removes a service credential.
func (c *Client) DeleteAPIKey(ctx context.Context, service string) error {
	return c.statusCall(ctx, http.MethodDelete, "/api/keys/"+url.PathEscape(service), nil)
}

// ListSkills returns the installed skills.
func (c *Client) ListSkills(ctx context.Context) ([]v1.Skill, error) {
	var out []v1.Skill
	if err := c.do(ctx, http.MethodGet, "/api/skills", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetSkillEnabled toggles a skill.
func (c *Client) SetSkillEnabled(ctx context.Context, name string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.statusCall(ctx, http.MethodPut, "/api/skills/"+url.PathEscape(name), body)
}

// ListModules returns the backend module configuration.
func (c *Client) ListModules(ctx context.Context) ([]v1.Module, error) {
	var out []v1.Module
	if err := c.do(ctx, http.MethodGet, "/api/modules", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetModuleEnabled toggles a backend module.
func (c *Client) SetModuleEnabled(ctx context.Context, name string, enabled bool) error {
	body := map[string]bool{"enabled": enabled}
	return c.statusCall(ctx, http.MethodPut, "/api/modules/"+url.PathEscape(name), body)
}

// statusCall performs a request whose reply is the generic status shape.
func (c *Client) statusCall(ctx context.Context, method, path string, body interface{}) error {
	var resp v1.StatusResponse
	if err := c.do(ctx, method, path, body, &resp); err != nil {
		return err
	}
	if !resp.Success && resp.Error != "" {
		return apperrors.Upstream(resp.Error, nil)
	}
	return nil
}
