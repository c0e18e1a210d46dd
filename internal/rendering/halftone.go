package rendering

import (
	"image"

	"github.com/rmitchellscott/stippler/internal/imageprocessing"
	"github.com/rmitchellscott/stippler/internal/surface"
)

// HalftoneRenderer reduces the image to a few grey levels in cells of
// size×size pixels, using error diffusion when random is 0 and a Bayer
// matrix otherwise.
type HalftoneRenderer struct{}

// NewHalftoneRenderer creates the dither-based renderer
func NewHalftoneRenderer() *HalftoneRenderer {
	return &HalftoneRenderer{}
}

func (h *HalftoneRenderer) Name() string {
	return "halftone"
}

// Levels maps the count parameter onto a palette size in [2, 16]
func (h *HalftoneRenderer) Levels(count int) int {
	count = max(0, min(10000, count))
	return 2 + count*14/10000
}

func (h *HalftoneRenderer) Apply(width, height int, input, output *surface.Surface, size, count, contrast, random int) error {
	if err := checkSurfaces(width, height, input, output); err != nil {
		return err
	}

	gray := imageprocessing.ToGrayscale(input.Pixels())
	gray = imageprocessing.StretchContrast(gray, contrast)
	small := imageprocessing.Shrink(gray, size)

	var dithered *image.Paletted
	if random <= 0 {
		dithered = imageprocessing.DitherFloydSteinberg(small, h.Levels(count))
	} else {
		strength := float32(min(random, 100)) / 100
		dithered = imageprocessing.DitherBayer(small, h.Levels(count), strength)
	}

	imageprocessing.ScaleNearestInto(output.Pixels(), dithered)
	return nil
}
