package logging

// Component constants for structured logging
const (
	ComponentStartup  = "startup"
	ComponentShutdown = "shutdown"
	ComponentAPI      = "api"
	ComponentIngest   = "ingest"
	ComponentRenderer = "renderer"
	ComponentExport   = "export"
	ComponentSessions = "sessions"
	ComponentSSE      = "sse"
	ComponentSettings = "settings"
)
