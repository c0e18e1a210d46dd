package orchestrator

import (
	"github.com/rmitchellscott/stippler/internal/export"
	"github.com/rmitchellscott/stippler/internal/settings"
)

// Command is one of LoadImage, UpdateSetting or Export
type Command interface {
	command()
}

// LoadImage decodes Data and, if it is still the latest load when decoding
// finishes, replaces the current image and renders it.
type LoadImage struct {
	Data []byte
}

// UpdateSetting changes one parameter. A live update (Committed false) only
// produces the new label; a committed update stores the value and renders.
type UpdateSetting struct {
	ID        string
	Value     int
	Committed bool
}

// Export encodes the output surface. An empty Filename means image.png.
type Export struct {
	Filename string
}

func (LoadImage) command()     {}
func (UpdateSetting) command() {}
func (Export) command()        {}

// Result is what a dispatched command produced. Fields not relevant to the
// command are left zero.
type Result struct {
	Label   string       `json:"label,omitempty"`
	Width   int          `json:"width,omitempty"`
	Height  int          `json:"height,omitempty"`
	Renders int          `json:"renders"`
	Blob    *export.Blob `json:"-"`
}

// Status describes the workspace for the status endpoint
type Status struct {
	HasImage bool   `json:"has_image"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Format   string `json:"format,omitempty"`
	Rendered bool   `json:"rendered"`
	Renders  int    `json:"renders"`
	Renderer string `json:"renderer"`
}

// SettingView is a setting as shown to the user
type SettingView struct {
	settings.Setting
	Text string `json:"text"`
}
