package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

var (
	mu     sync.RWMutex
	logger = New(os.Stderr, levelFromEnv(), os.Getenv("LOG_NO_COLOR") != "")
)

// New builds a tint-backed slog logger writing to w.
func New(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}))
}

// ParseLevel maps debug|info|warn|error onto slog levels; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func levelFromEnv() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// SetLogger replaces the package logger. Tests use it to capture output.
func SetLogger(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Logger returns the current package logger
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }
func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }

// DebugWithComponent logs at debug level tagged with a component
func DebugWithComponent(component, msg string, args ...any) {
	Logger().With("component", component).Debug(msg, args...)
}

// InfoWithComponent logs at info level tagged with a component
func InfoWithComponent(component, msg string, args ...any) {
	Logger().With("component", component).Info(msg, args...)
}

// WarnWithComponent logs at warn level tagged with a component
func WarnWithComponent(component, msg string, args ...any) {
	Logger().With("component", component).Warn(msg, args...)
}

// ErrorWithComponent logs at error level tagged with a component
func ErrorWithComponent(component, msg string, args ...any) {
	Logger().With("component", component).Error(msg, args...)
}
