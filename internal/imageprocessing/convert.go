package imageprocessing

import (
	"image"
	"image/color"
	"image/draw"
)

// ToGrayscale converts an image to grayscale using the luminance formula
// Y = 0.299*R + 0.587*G + 0.114*B
func ToGrayscale(img image.Image) *image.Gray {
	if img == nil {
		return nil
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// ToRGBA converts any image to RGBA format anchored at the origin
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	return CopyImage(img)
}

// CopyImage creates an origin-anchored RGBA copy of an image
func CopyImage(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

// CreateImageCanvas creates a new RGBA image with the specified dimensions
func CreateImageCanvas(width, height int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// StretchContrast scales grey values away from mid-grey. amount 0 leaves the
// image unchanged; 100 triples the distance from 128.
func StretchContrast(gray *image.Gray, amount int) *image.Gray {
	out := image.NewGray(gray.Bounds())
	factor := 1 + float64(amount)/50
	for i, v := range gray.Pix {
		scaled := (float64(v)-128)*factor + 128
		out.Pix[i] = clampUint8(scaled)
	}
	return out
}

// GrayscalePalette returns levels evenly spaced grey values from black to white
func GrayscalePalette(levels int) color.Palette {
	if levels < 2 {
		levels = 2
	}
	palette := make(color.Palette, levels)
	for i := 0; i < levels; i++ {
		palette[i] = color.Gray{Y: uint8((i * 255) / (levels - 1))}
	}
	return palette
}

func clampUint8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
