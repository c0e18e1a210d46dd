package imageprocessing

import (
	"image"

	"github.com/makeworld-the-better-one/dither/v2"
)

// DitherFloydSteinberg quantizes img to a grey palette with Floyd-Steinberg error diffusion
func DitherFloydSteinberg(img image.Image, levels int) *image.Paletted {
	if img == nil {
		return nil
	}

	ditherer := dither.NewDitherer(GrayscalePalette(levels))
	ditherer.Matrix = dither.FloydSteinberg

	// The ditherer may write into its input, so hand it a copy
	return ditherer.DitherPaletted(CopyImage(img))
}

// DitherBayer quantizes img with an 8x8 Bayer ordered matrix. strength is in (0, 1].
func DitherBayer(img image.Image, levels int, strength float32) *image.Paletted {
	if img == nil {
		return nil
	}

	ditherer := dither.NewDitherer(GrayscalePalette(levels))
	ditherer.Mapper = dither.Bayer(8, 8, strength)

	return ditherer.DitherPaletted(CopyImage(img))
}
