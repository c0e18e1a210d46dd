package config

import (
	"strings"
	"time"
)

// Config holds the service settings read from the environment at startup
type Config struct {
	Port                string
	GinMode             string
	Renderer            string
	MaxUploadBytes      int64
	MaxImageDimension   int
	MaxImagePixels      int64
	UploadRatePerMinute int
	SessionSecret       string
	SessionIdleTimeout  time.Duration
	// MaxSessions caps live workspaces; 0 means no cap
	MaxSessions          int
	SessionRatePerMinute int
	// AllowInsecure drops the Secure flag from the session cookie
	AllowInsecure bool
	LogLevel      string
	LogNoColor    bool
}

// Load reads Config from the environment, applying defaults for unset keys.
func Load() Config {
	return Config{
		Port:                 Get("PORT", "8000"),
		GinMode:              Get("GIN_MODE", ""),
		Renderer:             Get("RENDERER", "stipple"),
		MaxUploadBytes:       GetInt64("MAX_UPLOAD_BYTES", 20<<20),
		MaxImageDimension:    GetInt("MAX_IMAGE_DIMENSION", 0),
		MaxImagePixels:       GetInt64("MAX_IMAGE_PIXELS", 40_000_000),
		UploadRatePerMinute:  GetInt("UPLOAD_RATE_PER_MINUTE", 30),
		SessionSecret:        Get("SESSION_SECRET", ""),
		SessionIdleTimeout:   GetDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		MaxSessions:          GetInt("MAX_SESSIONS", 1000),
		SessionRatePerMinute: GetInt("SESSION_RATE_PER_MINUTE", 10),
		AllowInsecure:        GetBool("ALLOW_INSECURE", false),
		LogLevel:             Get("LOG_LEVEL", "info"),
		LogNoColor:           GetBool("LOG_NO_COLOR", false),
	}
}

// SecureCookies reports whether the session cookie carries the Secure flag
func (c Config) SecureCookies() bool {
	return !c.AllowInsecure
}

// CookieWarning describes a likely cookie misconfiguration, or returns "".
// Browsers drop Secure cookies on plain HTTP to any host but localhost, so a
// development setup without ALLOW_INSECURE starts a new session on every
// request.
func (c Config) CookieWarning() string {
	mode := strings.ToLower(c.GinMode)
	if !c.SecureCookies() || mode == "" || mode == "release" {
		return ""
	}
	return "Session cookies are Secure; over plain HTTP (other than localhost) browsers drop them " +
		"and every request starts a new session. Serve over HTTPS or set ALLOW_INSECURE=true"
}
