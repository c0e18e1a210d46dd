package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rmitchellscott/stippler/internal/export"
	"github.com/rmitchellscott/stippler/internal/ingest"
	"github.com/rmitchellscott/stippler/internal/logging"
	"github.com/rmitchellscott/stippler/internal/orchestrator"
	"github.com/rmitchellscott/stippler/internal/sessions"
	"github.com/rmitchellscott/stippler/internal/settings"
	"github.com/rmitchellscott/stippler/internal/sse"
)

// requireSession returns the workspace attached by the session middleware
func requireSession(c *gin.Context) (*sessions.Session, bool) {
	s := sessions.FromContext(c)
	if s == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "No session"})
		return nil, false
	}
	return s, true
}

// respondError maps workspace errors to HTTP responses
func respondError(c *gin.Context, err error) {
	var (
		validationErr *settings.ValidationError
		decodeErr     *ingest.DecodeError
		encodingErr   *export.EncodingError
		maxBytesErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "id": validationErr.ID})
	case errors.As(err, &decodeErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": decodeErr.Error()})
	case errors.As(err, &encodingErr):
		c.JSON(http.StatusConflict, gin.H{"error": encodingErr.Error()})
	case errors.Is(err, orchestrator.ErrSuperseded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":    "Request payload too large",
			"max_size": fmt.Sprintf("%dB", maxBytesErr.Limit),
		})
	case errors.Is(err, orchestrator.ErrStopped),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Workspace unavailable"})
	default:
		logging.ErrorWithComponent(logging.ComponentAPI, "Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// GetSettingsHandler returns the settings in display order
func GetSettingsHandler(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	views, err := s.Orchestrator.Settings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": views})
}

// UpdateSettingHandler applies a live or committed setting change
func UpdateSettingHandler(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	var req struct {
		Value     *int `json:"value" binding:"required"`
		Committed bool `json:"committed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.Orchestrator.Dispatch(c.Request.Context(), orchestrator.UpdateSetting{
		ID:        c.Param("id"),
		Value:     *req.Value,
		Committed: req.Committed,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        c.Param("id"),
		"value":     *req.Value,
		"text":      res.Label,
		"committed": req.Committed,
		"renders":   res.Renders,
	})
}

// UploadImageHandler decodes the uploaded file and renders it
func UploadImageHandler(c *gin.Context) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	logging.DebugWithComponent(logging.ComponentAPI, "Image uploaded",
		"session_id", s.ID, "filename", header.Filename, "bytes", len(data))

	res, err := s.Orchestrator.Dispatch(c.Request.Context(), orchestrator.LoadImage{Data: data})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"width":   res.Width,
		"height":  res.Height,
		"renders": res.Renders,
	})
}

// StatusResponse is the workspace status plus how many event streams the
// session has open
type StatusResponse struct {
	orchestrator.Status
	EventClients int `json:"event_clients"`
}

// StatusHandler reports what the workspace currently holds
func StatusHandler(events *sse.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}

		st, err := s.Orchestrator.Status(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, StatusResponse{Status: st, EventClients: events.GetSessionClientCount(s.ID)})
	}
}

// PreviewHandler serves the rendered output inline
func PreviewHandler(c *gin.Context) {
	serveOutput(c, "inline")
}

// ExportHandler serves the rendered output as a download
func ExportHandler(c *gin.Context) {
	serveOutput(c, "attachment")
}

func serveOutput(c *gin.Context, disposition string) {
	s, ok := requireSession(c)
	if !ok {
		return
	}

	res, err := s.Orchestrator.Dispatch(c.Request.Context(), orchestrator.Export{Filename: export.DefaultFilename})
	if err != nil {
		respondError(c, err)
		return
	}

	blob := res.Blob
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=\"%s\"", disposition, blob.Filename))
	c.Header("Cache-Control", "no-store")
	c.Header("ETag", fmt.Sprintf("\"%s\"", blob.SHA256))
	c.Data(http.StatusOK, blob.ContentType, blob.Data)
}

// EventsHandler streams workspace events to the browser
func EventsHandler(events *sse.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}

		client := events.AddClient(s.ID, c.Writer)
		if client == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to establish SSE connection"})
			return
		}
		defer events.RemoveClient(client.ID)

		events.Serve(c.Request.Context(), client)
	}
}
