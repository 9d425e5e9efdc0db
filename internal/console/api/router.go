package api

import (
	"github.com/gin-gonic/gin"

	"github.com/starkbot/console/internal/chat/session"
	"github.com/starkbot/console/internal/common/logger"
)

// SetupRoutes configures the console API routes.
func SetupRoutes(router *gin.RouterGroup, monitor *session.Monitor, conn Connectivity, log *logger.Logger) {
	handler := NewHandler(monitor, conn, log)

	sess := router.Group("/session")
	{
		sess.GET("/status", handler.GetStatus)
		sess.GET("/subagents", handler.ListSubagents)
		sess.POST("/subagents/cancel", handler.CancelSubagents)
		sess.GET("/confirmations", handler.GetConfirmations)
		sess.POST("/confirmations/resolve", handler.ResolveConfirmation)
		sess.POST("/txqueue/resolve", handler.ResolveTransaction)
		sess.GET("/messages", handler.ListMessages)
		sess.POST("/messages", handler.SendMessage)
		sess.POST("/stop", handler.StopExecution)
		sess.POST("/new", handler.NewSession)
	}
}

// SetupAdminRoutes configures the backend configuration pass-through routes.
func SetupAdminRoutes(router *gin.RouterGroup, backend AdminBackend, log *logger.Logger) {
	handler := NewAdminHandler(backend, log)

	admin := router.Group("/admin")
	{
		admin.GET("/channels", handler.ListChannels)
		admin.PUT("/channels/:id", handler.SetChannelEnabled)
		admin.GET("/schedules", handler.ListSchedules)
		admin.POST("/schedules", handler.CreateSchedule)
		admin.PUT("/schedules/:id", handler.UpdateSchedule)
		admin.DELETE("/schedules/:id", handler.DeleteSchedule)
		admin.GET("/memories", handler.ListMemories)
		admin.POST("/memories", handler.CreateMemory)
		admin.DELETE("/memories/:id", handler.DeleteMemory)
		admin.GET("/keys", handler.ListAPIKeys)
		admin.POST("/keys", handler.PutAPIKey)
		admin.DELETE("/keys/:service", handler.DeleteAPIKey)
		admin.GET("/skills", handler.ListSkills)
		admin.PUT("/skills/:name", handler.SetSkillEnabled)
		admin.GET("/modules", handler.ListModules)
		admin.PUT("/modules/:name", handler.SetModuleEnabled)
	}
}

// NewServer assembles a gin engine with the console middleware stack.
func NewServer(monitor *session.Monitor, conn Connectivity, admin AdminBackend, log *logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		Recovery(log),
		RequestLogger(log),
		ErrorHandler(log),
		CORS(),
	)

	v1 := engine.Group("/api/v1")
	SetupRoutes(v1, monitor, conn, log)
	SetupAdminRoutes(v1, admin, log)

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	return engine
}
