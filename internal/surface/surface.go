// Package surface provides the in-memory pixel buffers the renderer reads
// from and writes to.
//
// Surfaces are NOT thread-safe. The orchestrator loop is their only user;
// anything leaving the loop takes a Snapshot.
package surface

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/rmitchellscott/stippler/internal/imageprocessing"
)

// Surface is a 2D RGBA canvas
type Surface struct {
	img      *image.RGBA
	rendered bool
}

// New creates a transparent surface. Non-positive dimensions are raised to 1.
func New(width, height int) *Surface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Surface{img: imageprocessing.CreateImageCanvas(width, height)}
}

// Width returns the surface width in pixels
func (s *Surface) Width() int {
	return s.img.Bounds().Dx()
}

// Height returns the surface height in pixels
func (s *Surface) Height() int {
	return s.img.Bounds().Dy()
}

// Bounds returns the surface rectangle, always anchored at the origin
func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

// Clear resets every pixel to transparent black and forgets any render.
func (s *Surface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	s.rendered = false
}

// Paint copies src onto the surface at the origin, replacing what was there.
func (s *Surface) Paint(src image.Image) {
	draw.Draw(s.img, s.img.Bounds(), src, src.Bounds().Min, draw.Src)
}

// Pixels exposes the backing image for renderers. Writes go straight to the surface.
func (s *Surface) Pixels() *image.RGBA {
	return s.img
}

// At returns the colour at x, y
func (s *Surface) At(x, y int) color.RGBA {
	return s.img.RGBAAt(x, y)
}

// MarkRendered records that a renderer has written the surface
func (s *Surface) MarkRendered() {
	s.rendered = true
}

// Rendered reports whether a renderer has written the surface since the last Clear
func (s *Surface) Rendered() bool {
	return s != nil && s.rendered
}

// Snapshot returns a copy of the current contents
func (s *Surface) Snapshot() *image.RGBA {
	return imageprocessing.CopyImage(s.img)
}
