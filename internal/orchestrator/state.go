package orchestrator

import (
	"github.com/rmitchellscott/stippler/internal/ingest"
	"github.com/rmitchellscott/stippler/internal/settings"
	"github.com/rmitchellscott/stippler/internal/surface"
)

// State is everything one workspace owns. Only the orchestrator loop reads or
// writes it.
type State struct {
	Registry *settings.Registry
	Source   *ingest.ImageSource
	Input    *surface.Surface
	Output   *surface.Surface

	// LatestLoad is the sequence number of the most recently submitted load
	LatestLoad uint64
	// Renders counts successful renderer invocations
	Renders int
}

// RenderRequest is built for a single renderer call and then dropped
type RenderRequest struct {
	Width  int
	Height int
	Input  *surface.Surface
	Output *surface.Surface
	Params settings.Snapshot
}

func newState(registry *settings.Registry) *State {
	return &State{Registry: registry}
}

// stage replaces the image and both surfaces wholesale
func (s *State) stage(src *ingest.ImageSource, input, output *surface.Surface) {
	s.Source = src
	s.Input = input
	s.Output = output
}

func (s *State) renderRequest() (*RenderRequest, error) {
	if s.Source == nil {
		return nil, ErrNoImage
	}
	return &RenderRequest{
		Width:  s.Source.Width,
		Height: s.Source.Height,
		Input:  s.Input,
		Output: s.Output,
		Params: s.Registry.Snapshot(),
	}, nil
}
