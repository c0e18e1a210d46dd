package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rmitchellscott/stippler/internal/config"
	"github.com/rmitchellscott/stippler/internal/middleware"
	"github.com/rmitchellscott/stippler/internal/sessions"
	"github.com/rmitchellscott/stippler/internal/sse"
)

// Dependencies are the shared services the API routes need
type Dependencies struct {
	Config   config.Config
	Sessions *sessions.Manager
	Tokens   *sessions.TokenIssuer
	Events   *sse.Service
	Uploads  *middleware.IPRateLimiter
	// NewSessions limits how fast one IP may start sessions
	NewSessions *middleware.IPRateLimiter
}

// RegisterRoutes mounts the API under /api
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	api := router.Group("/api")
	api.GET("/config", ConfigHandler(deps.Config))
	api.GET("/version", VersionHandler)

	var creations sessions.CreationLimiter
	if deps.NewSessions != nil {
		creations = deps.NewSessions
	}
	session := sessions.Middleware(deps.Sessions, deps.Tokens, !deps.Config.AllowInsecure, creations)

	// Upload limits run before a session is resolved so rejected uploads
	// never start one.
	api.POST("/image",
		deps.Uploads.RateLimit(),
		middleware.RequestSizeLimit(deps.Config.MaxUploadBytes),
		session,
		UploadImageHandler)

	workspace := api.Group("")
	workspace.Use(session)
	{
		workspace.GET("/settings", GetSettingsHandler)
		workspace.PUT("/settings/:id", UpdateSettingHandler)
		workspace.GET("/status", StatusHandler(deps.Events))
		workspace.GET("/preview", PreviewHandler)
		workspace.GET("/export", ExportHandler)
		workspace.GET("/events", EventsHandler(deps.Events))
	}
}
