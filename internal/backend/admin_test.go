package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/starkbot/console/internal/common/errors"
	v1 "github.com/starkbot/console/pkg/api/v1"
)

// recordedRequest captures what the backend saw for one admin call.
type recordedRequest struct {
	method string
	path   string
	body   []byte
}

func adminTestServer(t *testing.T, status int, reply interface{}) (*Client, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", 5*time.Second), rec
}

func TestClientListChannels(t *testing.T) {
	client, rec := adminTestServer(t, http.StatusOK, []v1.Channel{
		{ID: 1, Transport: "telegram", Name: "main", Enabled: true},
	})

	channels, err := client.ListChannels(context.Background())
	if err != nil {
		t.Fatalf("list channels failed: %v", err)
	}
	if rec.method != http.MethodGet || rec.path != "/api/channels" {
		t.Errorf("expected GET /api/channels, got %s %s", rec.method, rec.path)
	}
	if len(channels) != 1 || channels[0].Transport != "telegram" {
		t.Errorf("unexpected channels: %+v", channels)
	}
}

func TestClientSetChannelEnabled(t *testing.T) {
	client, rec := adminTestServer(t, http.StatusOK, v1.StatusResponse{Success: true})

	if err := client.SetChannelEnabled(context.Background(), 7, false); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if rec.method != http.MethodPut || rec.path != "/api/channels/7" {
		t.Errorf("expected PUT /api/channels/7, got %s %s", rec.method, rec.path)
	}
	var body map[string]bool
	if err := json.Unmarshal(rec.body, &body); err != nil {
		t.Fatalf("body should be JSON: %v", err)
	}
	if v, ok := body["enabled"]; !ok || v {
		t.Errorf("expected enabled=false in body, got %v", body)
	}
}

func TestClientScheduleLifecycle(t *testing.T) {
	client, rec := adminTestServer(t, http.StatusOK, v1.StatusResponse{Success: true})

	req := v1.ScheduleRequest{Name: "digest", CronExpr: "0 9 * * *", Prompt: "summarize", Enabled: true}
	if err := client.CreateSchedule(context.Background(), req); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.method != http.MethodPost || rec.path != "/api/schedules" {
		t.Errorf("expected POST /api/schedules, got %s %s", rec.method, rec.path)
	}
	var gotReq v1.ScheduleRequest
	if err := json.Unmarshal(rec.body, &gotReq); err != nil {
		t.Fatalf("body should be a schedule request: %v", err)
	}
	if gotReq.CronExpr != "0 9 * * *" {
		t.Errorf("cron expression should be forwarded, got %q", gotReq.CronExpr)
	}

	if err := client.UpdateSchedule(context.Background(), 3, req); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if rec.method != http.MethodPut || rec.path != "/api/schedules/3" {
		t.Errorf("expected PUT /api/schedules/3, got %s %s", rec.method, rec.path)
	}

	if err := client.DeleteSchedule(context.Background(), 3); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if rec.method != http.MethodDelete || rec.path != "/api/schedules/3" {
		t.Errorf("expected DELETE /api/schedules/3, got %s %s", rec.method, rec.path)
	}
}

func TestClientMemories(t *testing.T) {
	client, rec := adminTestServer(t, http.StatusOK, v1.StatusResponse{Success: true})

	if err := client.CreateMemory(context.Background(), v1.MemoryRequest{Content: "prefers dark mode"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.method != http.MethodPost || rec.path != "/api/memories" {
		t.Errorf("expected POST /api/memories, got %s %s", rec.method, rec.path)
	}

	if err := client.DeleteMemory(context.Background(), 12); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if rec.path != "/api/memories/12" {
		t.Errorf("expected /api/memories/12, got %s", rec.path)
	}
}

func TestClientAPIKeyServiceEscaped(t *testing.T) {
	client, rec := adminTestServer(t, http.StatusOK, v1.StatusResponse{Success: true})

	if err := client.DeleteAPIKey(context.Background(), "openai/prod"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	// The service name is a single path segment even when it contains a slash.
	if rec.path != "/api/keys/openai%2Fprod" && rec.path != "/api/keys/openai/prod" {
		t.Errorf("unexpected path %s", rec.path)
	}
	if rec.method != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", rec.method)
	}
}

func TestClientSkillAndModuleToggle(t *testing.T) {
	client, rec := adminTestServer(t, http.StatusOK, v1.StatusResponse{Success: true})

	if err := client.SetSkillEnabled(context.Background(), "web-search", true); err != nil {
		t.Fatalf("skill toggle failed: %v", err)
	}
	if rec.method != http.MethodPut || rec.path != "/api/skills/web-search" {
		t.Errorf("expected PUT /api/skills/web-search, got %s %s", rec.method, rec.path)
	}

	if err := client.SetModuleEnabled(context.Background(), "trading", false); err != nil {
		t.Fatalf("module toggle failed: %v", err)
	}
	if rec.method != http.MethodPut || rec.path != "/api/modules/trading" {
		t.Errorf("expected PUT /api/modules/trading, got %s %s", rec.method, rec.path)
	}
}

func TestClientAdminRejectedCall(t *testing.T) {
	client, _ := adminTestServer(t, http.StatusOK, v1.StatusResponse{Success: false, Error: "schedule not found"})

	err := client.DeleteSchedule(context.Background(), 99)
	if !apperrors.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if appErr := apperrors.AsAppError(err); appErr.Message != "schedule not found" {
		t.Errorf("backend error message should pass through, got %q", appErr.Message)
	}
}

func TestClientAdminHTTPError(t *testing.T) {
	client, _ := adminTestServer(t, http.StatusInternalServerError, v1.StatusResponse{Success: false, Error: "db locked"})

	_, err := client.ListSchedules(context.Background())
	if !apperrors.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}
