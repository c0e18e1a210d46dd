package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetFileFallback(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "secret")
	if err := os.WriteFile(secretPath, []byte("  s3cret\n"), 0600); err != nil {
		t.Fatalf("Failed to write secret file: %v", err)
	}

	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SESSION_SECRET_FILE", secretPath)

	if got := Get("SESSION_SECRET", "default"); got != "s3cret" {
		t.Errorf("Expected value from file, got %q", got)
	}

	t.Setenv("SESSION_SECRET", "direct")
	if got := Get("SESSION_SECRET", "default"); got != "direct" {
		t.Errorf("Expected direct value to win, got %q", got)
	}
}

func TestGetIntAndBool(t *testing.T) {
	t.Setenv("STIPPLER_INT", "42")
	t.Setenv("STIPPLER_BAD_INT", "forty-two")
	t.Setenv("STIPPLER_BOOL", "yes")

	if got := GetInt("STIPPLER_INT", 1); got != 42 {
		t.Errorf("GetInt = %d, want 42", got)
	}
	if got := GetInt("STIPPLER_BAD_INT", 7); got != 7 {
		t.Errorf("GetInt with garbage = %d, want default 7", got)
	}
	if !GetBool("STIPPLER_BOOL", false) {
		t.Error("GetBool(yes) should be true")
	}
	if GetBool("STIPPLER_UNSET_BOOL", false) {
		t.Error("GetBool on unset key should return default")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30d", 30 * 24 * time.Hour},
		{"2h", 2 * time.Hour},
		{" 15M ", 15 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if err != nil {
			t.Errorf("ParseDuration(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseDuration("soon"); err == nil {
		t.Error("Expected error for invalid duration")
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "RENDERER", "MAX_UPLOAD_BYTES", "MAX_IMAGE_DIMENSION", "UPLOAD_RATE_PER_MINUTE", "SESSION_IDLE_TIMEOUT"} {
		t.Setenv(key, "")
		t.Setenv(key+"_FILE", "")
	}

	cfg := Load()
	if cfg.Port != "8000" {
		t.Errorf("Port = %q, want 8000", cfg.Port)
	}
	if cfg.Renderer != "stipple" {
		t.Errorf("Renderer = %q, want stipple", cfg.Renderer)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.MaxImageDimension != 0 {
		t.Errorf("MaxImageDimension = %d, want 0", cfg.MaxImageDimension)
	}
	if cfg.SessionIdleTimeout != 2*time.Hour {
		t.Errorf("SessionIdleTimeout = %v, want 2h", cfg.SessionIdleTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RENDERER", "halftone")
	t.Setenv("MAX_IMAGE_DIMENSION", "1024")
	t.Setenv("SESSION_IDLE_TIMEOUT", "1d")

	cfg := Load()
	if cfg.Renderer != "halftone" {
		t.Errorf("Renderer = %q", cfg.Renderer)
	}
	if cfg.MaxImageDimension != 1024 {
		t.Errorf("MaxImageDimension = %d", cfg.MaxImageDimension)
	}
	if cfg.SessionIdleTimeout != 24*time.Hour {
		t.Errorf("SessionIdleTimeout = %v", cfg.SessionIdleTimeout)
	}
}

func TestGetUnreadableFileFallsBack(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SESSION_SECRET_FILE", filepath.Join(t.TempDir(), "missing"))

	if got := Get("SESSION_SECRET", "default"); got != "default" {
		t.Errorf("Get = %q, want default", got)
	}
}

func TestLoadSessionLimits(t *testing.T) {
	for _, key := range []string{"MAX_SESSIONS", "SESSION_RATE_PER_MINUTE", "MAX_IMAGE_PIXELS"} {
		t.Setenv(key, "")
		t.Setenv(key+"_FILE", "")
	}

	cfg := Load()
	if cfg.MaxSessions != 1000 || cfg.SessionRatePerMinute != 10 {
		t.Errorf("defaults: MaxSessions = %d, SessionRatePerMinute = %d", cfg.MaxSessions, cfg.SessionRatePerMinute)
	}
	if cfg.MaxImagePixels != 40_000_000 {
		t.Errorf("MaxImagePixels = %d", cfg.MaxImagePixels)
	}

	t.Setenv("MAX_SESSIONS", "5")
	t.Setenv("SESSION_RATE_PER_MINUTE", "2")
	t.Setenv("MAX_IMAGE_PIXELS", "1000000")
	cfg = Load()
	if cfg.MaxSessions != 5 || cfg.SessionRatePerMinute != 2 || cfg.MaxImagePixels != 1_000_000 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestCookieWarning(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantWarn bool
	}{
		{"release default", Config{}, false},
		{"release explicit", Config{GinMode: "release"}, false},
		{"debug secure", Config{GinMode: "debug"}, true},
		{"test secure", Config{GinMode: "test"}, true},
		{"debug insecure", Config{GinMode: "debug", AllowInsecure: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.CookieWarning()
			if (got != "") != tt.wantWarn {
				t.Errorf("CookieWarning() = %q, want warning %v", got, tt.wantWarn)
			}
		})
	}
}
