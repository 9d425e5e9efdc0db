package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/starkbot/console/internal/common/errors"
	"github.com/starkbot/console/internal/common/logger"
	v1 "github.com/starkbot/console/pkg/api/v1"
)

// AdminBackend is the slice of the backend client the admin pass-through
// routes use. The console does not reconcile any of this state; requests are
// forwarded and the backend's answer is returned as-is.
type AdminBackend interface {
	ListChannels(ctx context.Context) ([]v1.Channel, error)
	SetChannelEnabled(ctx context.Context, id int64, enabled bool) error
	ListSchedules(ctx context.Context) ([]v1.Schedule, error)
	CreateSchedule(ctx context.Context, req v1.ScheduleRequest) error
	UpdateSchedule(ctx context.Context, id int64, req v1.ScheduleRequest) error
	DeleteSchedule(ctx context.Context, id int64) error
	ListMemories(ctx context.Context) ([]v1.Memory, error)
	CreateMemory(ctx context.Context, req v1.MemoryRequest) error
	DeleteMemory(ctx context.Context, id int64) error
	ListAPIKeys(ctx context.Context) ([]v1.APIKey, error)
	PutAPIKey(ctx context.Context, service, value string) error
	DeleteAPIKey(ctx context.Context, service string) error
	ListSkills(ctx context.Context) ([]v1.Skill, error)
	SetSkillEnabled(ctx context.Context, name string, enabled bool) error
	ListModules(ctx context.Context) ([]v1.Module, error)
	SetModuleEnabled(ctx context.Context, name string, enabled bool) error
}

// AdminHandler proxies the backend's configuration endpoints.
type AdminHandler struct {
	backend AdminBackend
	logger  *logger.Logger
}

// NewAdminHandler creates the admin pass-through handler.
func NewAdminHandler(backend AdminBackend, log *logger.Logger) *AdminHandler {
	return &AdminHandler{backend: backend, logger: log}
}

// ListChannels returns the configured messaging channels.
// GET /api/v1/admin/channels
func (h *AdminHandler) ListChannels(c *gin.Context) {
	channels, err := h.backend.ListChannels(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "failed to list channels")
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// SetChannelEnabled toggles a channel.
// PUT /api/v1/admin/channels/:id
func (h *AdminHandler) SetChannelEnabled(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req EnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if err := h.backend.SetChannelEnabled(c.Request.Context(), id, req.Enabled); err != nil {
		h.respondError(c, err, "failed to update channel")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListSchedules returns the cron schedules.
// GET /api/v1/admin/schedules
func (h *AdminHandler) ListSchedules(c *gin.Context) {
	schedules, err := h.backend.ListSchedules(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "failed to list schedules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": schedules})
}

// CreateSchedule adds a cron schedule.
// POST /api/v1/admin/schedules
func (h *AdminHandler) CreateSchedule(c *gin.Context) {
	var req v1.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if err := h.backend.CreateSchedule(c.Request.Context(), req); err != nil {
		h.respondError(c, err, "failed to create schedule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateSchedule replaces a cron schedule.
// PUT /api/v1/admin/schedules/:id
func (h *AdminHandler) UpdateSchedule(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req v1.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if err := h.backend.UpdateSchedule(c.Request.Context(), id, req); err != nil {
		h.respondError(c, err, "failed to update schedule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteSchedule removes a cron schedule.
// DELETE /api/v1/admin/schedules/:id
func (h *AdminHandler) DeleteSchedule(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.backend.DeleteSchedule(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "failed to delete schedule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListMemories returns stored long-term memories.
// GET /api/v1/admin/memories
func (h *AdminHandler) ListMemories(c *gin.Context) {
	memories, err := h.backend.ListMemories(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "failed to list memories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"memories": memories})
}

// CreateMemory stores a memory entry.
// POST /api/v1/admin/memories
func (h *AdminHandler) CreateMemory(c *gin.Context) {
	var req v1.MemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if req.Content == "" {
		appErr := errors.BadRequest("content is required")
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if err := h.backend.CreateMemory(c.Request.Context(), req); err != nil {
		h.respondError(c, err, "failed to create memory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteMemory removes a memory entry.
// DELETE /api/v1/admin/memories/:id
func (h *AdminHandler) DeleteMemory(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.backend.DeleteMemory(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "failed to delete memory")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListAPIKeys returns the stored (masked) API keys.
// GET /api/v1/admin/keys
func (h *AdminHandler) ListAPIKeys(c *gin.Context) {
	keys, err := h.backend.ListAPIKeys(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "failed to list API keys")
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// PutAPIKey stores a credential for a service.
// POST /api/v1/admin/keys
func (h *AdminHandler) PutAPIKey(c *gin.Context) {
	var req APIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if err := h.backend.PutAPIKey(c.Request.Context(), req.Service, req.Value); err != nil {
		h.respondError(c, err, "failed to store API key")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteAPIKey removes a service credential.
// DELETE /api/v1/admin/keys/:service
func (h *AdminHandler) DeleteAPIKey(c *gin.Context) {
	if err := h.backend.DeleteAPIKey(c.Request.Context(), c.Param("service")); err != nil {
		h.respondError(c, err, "failed to delete API key")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListSkills returns the installed skills.
// GET /api/v1/admin/skills
func (h *AdminHandler) ListSkills(c *gin.Context) {
	skills, err := h.backend.ListSkills(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "failed to list skills")
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": skills})
}

// SetSkillEnabled toggles a skill.
// PUT /api/v1/admin/skills/:name
func (h *AdminHandler) SetSkillEnabled(c *gin.Context) {
	var req EnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if err := h.backend.SetSkillEnabled(c.Request.Context(), c.Param("name"), req.Enabled); err != nil {
		h.respondError(c, err, "failed to update skill")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListModules returns the backend module configuration.
// GET /api/v1/admin/modules
func (h *AdminHandler) ListModules(c *gin.Context) {
	modules, err := h.backend.ListModules(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "failed to list modules")
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": modules})
}

// SetModuleEnabled toggles a backend module.
// PUT /api/v1/admin/modules/:name
func (h *AdminHandler) SetModuleEnabled(c *gin.Context) {
	var req EnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		appErr := errors.BadRequest(err.Error())
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	if err := h.backend.SetModuleEnabled(c.Request.Context(), c.Param("name"), req.Enabled); err != nil {
		h.respondError(c, err, "failed to update module")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// pathID parses the numeric :id path parameter, replying 400 if it is
// malformed.
func (h *AdminHandler) pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		appErr := errors.BadRequest("id must be an integer")
		c.JSON(appErr.HTTPStatus, appErr)
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) respondError(c *gin.Context, err error, fallback string) {
	if appErr := errors.AsAppError(err); appErr != nil {
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	h.logger.Error(fallback, zap.Error(err))
	appErr := errors.InternalError(fallback, err)
	c.JSON(appErr.HTTPStatus, appErr)
}
