package version

import "fmt"

// Set at build time with -ldflags "-X github.com/rmitchellscott/stippler/internal/version.Version=..."
var (
	Version   = "0.1.0"
	BuildTime = "development"
	GitCommit = "unknown"
)

func String() string {
	return fmt.Sprintf("stippler v%s", Version)
}

func Get() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildTime": BuildTime,
		"gitCommit": GitCommit,
	}
}
