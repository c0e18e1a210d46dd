package imageprocessing

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// GetScaledDimensions calculates the scaled dimensions that fit within the target while preserving aspect ratio
func GetScaledDimensions(srcWidth, srcHeight, targetWidth, targetHeight int) (int, int) {
	scaleX := float64(targetWidth) / float64(srcWidth)
	scaleY := float64(targetHeight) / float64(srcHeight)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}

	newWidth := max(1, int(float64(srcWidth)*scale))
	newHeight := max(1, int(float64(srcHeight)*scale))

	return newWidth, newHeight
}

// LimitDimension scales img down so neither side exceeds maxDim. Images that
// already fit, or a maxDim <= 0, are returned unchanged.
func LimitDimension(img image.Image, maxDim int) image.Image {
	if img == nil || maxDim <= 0 {
		return img
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return img
	}

	newWidth, newHeight := GetScaledDimensions(bounds.Dx(), bounds.Dy(), maxDim, maxDim)
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))

	// BiLinear is a good quality/speed balance for downscaling photos
	xdraw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, xdraw.Src, nil)

	return resized
}

// Shrink scales img down by a factor of cell on each side, rounding up so
// partial cells at the edges are kept.
func Shrink(img *image.Gray, cell int) *image.Gray {
	if cell <= 1 {
		return img
	}

	bounds := img.Bounds()
	smallW := (bounds.Dx() + cell - 1) / cell
	smallH := (bounds.Dy() + cell - 1) / cell

	small := image.NewGray(image.Rect(0, 0, smallW, smallH))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, bounds, xdraw.Src, nil)
	return small
}

// ScaleNearestInto stretches src over all of dst with nearest-neighbour sampling
func ScaleNearestInto(dst draw.Image, src image.Image) {
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
}
