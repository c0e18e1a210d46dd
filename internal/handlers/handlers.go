package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rmitchellscott/stippler/internal/config"
	"github.com/rmitchellscott/stippler/internal/export"
	"github.com/rmitchellscott/stippler/internal/imageprocessing"
	"github.com/rmitchellscott/stippler/internal/rendering"
	"github.com/rmitchellscott/stippler/internal/version"
)

// ConfigHandler returns application configuration for the frontend
func ConfigHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"renderer":          cfg.Renderer,
			"renderers":         rendering.Available(),
			"exportFilename":    export.DefaultFilename,
			"maxUploadBytes":    cfg.MaxUploadBytes,
			"maxImageDimension": cfg.MaxImageDimension,
			"maxImagePixels":    cfg.MaxImagePixels,
			"secureCookies":     cfg.SecureCookies(),
			"supportedFormats":  imageprocessing.SupportedFormats(),
		})
	}
}

// VersionHandler returns the build version
func VersionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}
