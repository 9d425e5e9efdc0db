package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/starkbot/console/internal/common/errors"
	"github.com/starkbot/console/internal/common/logger"
	v1 "github.com/starkbot/console/pkg/api/v1"
)

// stubAdmin implements AdminBackend and records the last mutating call.
type stubAdmin struct {
	err error

	channels  []v1.Channel
	schedules []v1.Schedule
	memories  []v1.Memory
	keys      []v1.APIKey
	skills    []v1.Skill
	modules   []v1.Module

	lastCall string
	lastID   int64
	lastName string
	lastFlag bool
}

func (s *stubAdmin) ListChannels(ctx context.Context) ([]v1.Channel, error) {
	return s.channels, s.err
}

func (s *stubAdmin) SetChannelEnabled(ctx context.Context, id int64, enabled bool) error {
	s.lastCall, s.lastID, s.lastFlag = "channel", id, enabled
	return s.err
}

func (s *stubAdmin) ListSchedules(ctx context.Context) ([]v1.Schedule, error) {
	return s.schedules, s.err
}

func (s *stubAdmin) CreateSchedule(ctx context.Context, req v1.ScheduleRequest) error {
	s.lastCall, s.lastName = "schedule.create", req.Name
	return s.err
}

func (s *stubAdmin) UpdateSchedule(ctx context.Context, id int64, req v1.ScheduleRequest) error {
	s.lastCall, s.lastID, s.lastName = "schedule.update", id, req.Name
	return s.err
}

func (s *stubAdmin) DeleteSchedule(ctx context.Context, id int64) error {
	s.lastCall, s.lastID = "schedule.delete", id
	return s.err
}

func (s *stubAdmin) ListMemories(ctx context.Context) ([]v1.Memory, error) {
	return s.memories, s.err
}

func (s *stubAdmin) CreateMemory(ctx context.Context, req v1.MemoryRequest) error {
	s.lastCall, s.lastName = "memory.create", req.Content
	return s.err
}

func (s *stubAdmin) DeleteMemory(ctx context.Context, id int64) error {
	s.lastCall, s.lastID = "memory.delete", id
	return s.err
}

func (s *stubAdmin) ListAPIKeys(ctx context.Context) ([]v1.APIKey, error) {
	return s.keys, s.err
}

func (s *stubAdmin) PutAPIKey(ctx context.Context, service, value string) error {
	s.lastCall, s.lastName = "key.put", service
	return s.err
}

func (s *stubAdmin) DeleteAPIKey(ctx context.Context, service string) error {
	s.lastCall, s.lastName = "key.delete", service
	return s.err
}

func (s *stubAdmin) ListSkills(ctx context.Context) ([]v1.Skill, error) {
	return s.skills, s.err
}

func (s *stubAdmin) SetSkillEnabled(ctx context.Context, name string, enabled bool) error {
	s.lastCall, s.lastName, s.lastFlag = "skill", name, enabled
	return s.err
}

func (s *stubAdmin) ListModules(ctx context.Context) ([]v1.Module, error) {
	return s.modules, s.err
}

func (s *stubAdmin) SetModuleEnabled(ctx context.Context, name string, enabled bool) error {
	s.lastCall, s.lastName, s.lastFlag = "module", name, enabled
	return s.err
}

func setupAdminServer(t *testing.T) (*gin.Engine, *stubAdmin) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	admin := &stubAdmin{}
	log, _ := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})

	engine := gin.New()
	group := engine.Group("/api/v1")
	SetupAdminRoutes(group, admin, log)
	return engine, admin
}

func TestAdminListChannels(t *testing.T) {
	engine, admin := setupAdminServer(t)
	admin.channels = []v1.Channel{{ID: 1, Transport: "web", Name: "console", Enabled: true}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/channels", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Channels []v1.Channel `json:"channels"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Channels) != 1 || resp.Channels[0].Transport != "web" {
		t.Errorf("unexpected channels: %+v", resp.Channels)
	}
}

func TestAdminToggleChannel(t *testing.T) {
	engine, admin := setupAdminServer(t)

	body := bytes.NewBufferString(`{"enabled":false}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/channels/5", body)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if admin.lastCall != "channel" || admin.lastID != 5 || admin.lastFlag {
		t.Errorf("expected channel 5 disabled, got %s id=%d flag=%v", admin.lastCall, admin.lastID, admin.lastFlag)
	}
}

func TestAdminToggleChannelBadID(t *testing.T) {
	engine, admin := setupAdminServer(t)

	body := bytes.NewBufferString(`{"enabled":true}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/channels/abc", body)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if admin.lastCall != "" {
		t.Errorf("backend should not be called on a malformed id")
	}
}

func TestAdminScheduleLifecycle(t *testing.T) {
	engine, admin := setupAdminServer(t)

	create := mustJSON(t, v1.ScheduleRequest{Name: "digest", CronExpr: "0 9 * * *", Prompt: "summarize"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/schedules", bytes.NewReader(create))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if admin.lastCall != "schedule.create" || admin.lastName != "digest" {
		t.Errorf("create not forwarded: %s %s", admin.lastCall, admin.lastName)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/admin/schedules/9", bytes.NewReader(create))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", w.Code)
	}
	if admin.lastCall != "schedule.update" || admin.lastID != 9 {
		t.Errorf("update not forwarded: %s id=%d", admin.lastCall, admin.lastID)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/schedules/9", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if admin.lastCall != "schedule.delete" || admin.lastID != 9 {
		t.Errorf("delete not forwarded: %s id=%d", admin.lastCall, admin.lastID)
	}
}

func TestAdminCreateMemoryRequiresContent(t *testing.T) {
	engine, admin := setupAdminServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/memories", bytes.NewBufferString(`{"category":"misc"}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", w.Code)
	}
	if admin.lastCall != "" {
		t.Errorf("backend should not be called without content")
	}
}

func TestAdminPutAPIKey(t *testing.T) {
	engine, admin := setupAdminServer(t)

	body := bytes.NewBufferString(`{"service":"openai","value":"sk-test"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/keys", body)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if admin.lastCall != "key.put" || admin.lastName != "openai" {
		t.Errorf("key not forwarded: %s %s", admin.lastCall, admin.lastName)
	}
}

func TestAdminPutAPIKeyMissingFields(t *testing.T) {
	engine, _ := setupAdminServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/keys", bytes.NewBufferString(`{"service":"openai"}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing value, got %d", w.Code)
	}
}

func TestAdminToggleSkillAndModule(t *testing.T) {
	engine, admin := setupAdminServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/skills/web-search", bytes.NewBufferString(`{"enabled":true}`))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("skill: expected 200, got %d", w.Code)
	}
	if admin.lastCall != "skill" || admin.lastName != "web-search" || !admin.lastFlag {
		t.Errorf("skill toggle not forwarded: %+v", admin)
	}

	req = httptest.NewRequest(http.MethodPut, "/api/v1/admin/modules/trading", bytes.NewBufferString(`{"enabled":false}`))
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("module: expected 200, got %d", w.Code)
	}
	if admin.lastCall != "module" || admin.lastName != "trading" || admin.lastFlag {
		t.Errorf("module toggle not forwarded: %+v", admin)
	}
}

func TestAdminUpstreamErrorPreserved(t *testing.T) {
	engine, admin := setupAdminServer(t)
	admin.err = errors.Upstream("schedule not found", nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/schedules/99", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	var appErr errors.AppError
	if err := json.Unmarshal(w.Body.Bytes(), &appErr); err != nil {
		t.Fatalf("failed to unmarshal error: %v", err)
	}
	if appErr.Message != "schedule not found" {
		t.Errorf("backend error message should pass through, got %q", appErr.Message)
	}
}
