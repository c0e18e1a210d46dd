package main

import (
	// standard library
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	// third-party
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	// internal
	"github.com/rmitchellscott/stippler/internal/config"
	"github.com/rmitchellscott/stippler/internal/export"
	"github.com/rmitchellscott/stippler/internal/handlers"
	"github.com/rmitchellscott/stippler/internal/ingest"
	"github.com/rmitchellscott/stippler/internal/logging"
	"github.com/rmitchellscott/stippler/internal/middleware"
	"github.com/rmitchellscott/stippler/internal/orchestrator"
	"github.com/rmitchellscott/stippler/internal/rendering"
	"github.com/rmitchellscott/stippler/internal/sessions"
	"github.com/rmitchellscott/stippler/internal/settings"
	"github.com/rmitchellscott/stippler/internal/sse"
	"github.com/rmitchellscott/stippler/internal/version"
)

//go:embed ui/index.html ui/app.js
var embeddedUI embed.FS

func main() {
	_ = godotenv.Load()

	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println(version.String())
		os.Exit(0)
	}

	cfg := config.Load()
	logging.SetLogger(logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel), cfg.LogNoColor))
	logging.InfoWithComponent(logging.ComponentStartup, "Starting stippler", "version", version.String(), "renderer", cfg.Renderer)
	if warning := cfg.CookieWarning(); warning != "" {
		logging.WarnWithComponent(logging.ComponentStartup, warning, "gin_mode", cfg.GinMode)
	}

	// Fail fast on a broken schema or renderer name rather than on the first request
	schema, err := settings.DefaultSchema()
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Failed to load settings schema", "error", err)
		os.Exit(1)
	}
	if err := settings.NewRegistry().Register(schema); err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Invalid settings schema", "error", err)
		os.Exit(1)
	}
	if _, err := rendering.New(cfg.Renderer); err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Invalid renderer", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sseService := sse.NewService()
	go sseService.KeepAlive(ctx, 30*time.Second)

	pipeline := ingest.NewPipeline(ingest.Options{
		MaxDimension: cfg.MaxImageDimension,
		MaxPixels:    cfg.MaxImagePixels,
	})
	exporter := export.NewService()

	sessionManager := sessions.NewManager(ctx, func(id uuid.UUID) (*orchestrator.Orchestrator, error) {
		registry := settings.NewRegistry()
		if err := registry.Register(schema); err != nil {
			return nil, err
		}
		renderer, err := rendering.New(cfg.Renderer)
		if err != nil {
			return nil, err
		}
		return orchestrator.NewOrchestrator(registry, renderer, pipeline, exporter, sseService.Sink(id)), nil
	}, sessions.Options{
		IdleTimeout: cfg.SessionIdleTimeout,
		MaxSessions: cfg.MaxSessions,
		OnClose:     sseService.RemoveSession,
	})
	go sessionManager.ReapRoutine(ctx, time.Minute)

	uploadLimiter := middleware.NewIPRateLimiter("upload", cfg.UploadRatePerMinute)
	go uploadLimiter.CleanupRoutine(ctx, 10*time.Minute)
	sessionLimiter := middleware.NewIPRateLimiter("session", cfg.SessionRatePerMinute)
	go sessionLimiter.CleanupRoutine(ctx, 10*time.Minute)

	uiFS, err := fs.Sub(embeddedUI, "ui")
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentStartup, "Failed to create embedded UI filesystem", "error", err)
		os.Exit(1)
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Cache-Control"}
	router.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(router, handlers.Dependencies{
		Config:      cfg,
		Sessions:    sessionManager,
		Tokens:      sessions.NewTokenIssuer(cfg.SessionSecret, 24*time.Hour),
		Events:      sseService,
		Uploads:     uploadLimiter,
		NewSessions: sessionLimiter,
	})

	// Serve UI
	router.NoRoute(func(c *gin.Context) {
		p := strings.TrimPrefix(c.Request.URL.Path, "/")
		if strings.HasPrefix(p, "api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		if stat, err := fs.Stat(uiFS, p); p == "" || err != nil || stat.IsDir() {
			p = "index.html"
		}

		if strings.HasSuffix(p, ".js") {
			c.Header("Content-Type", "application/javascript")
		}
		if p == "index.html" {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		http.ServeFileFS(c.Writer, c.Request, uiFS, p)
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logging.InfoWithComponent(logging.ComponentStartup, "Listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorWithComponent(logging.ComponentStartup, "Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.InfoWithComponent(logging.ComponentShutdown, "Shutting down server and sessions")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Event streams only end when their sessions close
	sessionManager.Shutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorWithComponent(logging.ComponentShutdown, "Server forced to shutdown", "error", err)
		os.Exit(1)
	}
	cancel()

	logging.InfoWithComponent(logging.ComponentShutdown, "Server stopped")
}
