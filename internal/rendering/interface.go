package rendering

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rmitchellscott/stippler/internal/surface"
)

// ErrSurfaceMismatch is returned when the surfaces do not match the requested size
var ErrSurfaceMismatch = errors.New("surfaces do not match render dimensions")

// Renderer draws the stylized effect from input into output.
//
// Apply must behave as a pure function of its arguments: every call fully
// overwrites output, so repeating a call with the same input and parameters
// yields bit-identical pixels.
type Renderer interface {
	// Name identifies the renderer in config and API responses
	Name() string

	// Apply renders input into output using the four tuning parameters
	Apply(width, height int, input, output *surface.Surface, size, count, contrast, random int) error
}

var factories = map[string]func() Renderer{
	"stipple":  func() Renderer { return NewStippleRenderer() },
	"halftone": func() Renderer { return NewHalftoneRenderer() },
}

// New returns the renderer registered under name
func New(name string) (Renderer, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown renderer %q (available: %v)", name, Available())
	}
	return factory(), nil
}

// Available lists registered renderer names in sorted order
func Available() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkSurfaces(width, height int, input, output *surface.Surface) error {
	if input == nil || output == nil {
		return fmt.Errorf("%w: missing surface", ErrSurfaceMismatch)
	}
	if input.Width() != width || input.Height() != height ||
		output.Width() != width || output.Height() != height {
		return fmt.Errorf("%w: want %dx%d, input %dx%d, output %dx%d", ErrSurfaceMismatch,
			width, height, input.Width(), input.Height(), output.Width(), output.Height())
	}
	return nil
}
