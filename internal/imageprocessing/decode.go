package imageprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

var (
	// ErrEmptyImage is returned when there are no bytes to decode
	ErrEmptyImage = errors.New("image data is empty")

	// ErrTooManyPixels is returned when the header declares more pixels than allowed
	ErrTooManyPixels = errors.New("image exceeds pixel limit")
)

// DefaultMaxPixels bounds decoded images to roughly 160 MB of RGBA
const DefaultMaxPixels = 40_000_000

// SupportedFormats lists the formats Decode understands
func SupportedFormats() []string {
	return []string{"png", "jpeg", "gif", "bmp", "tiff", "webp"}
}

// Decode decodes raw image bytes in any registered format
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, format, fmt.Errorf("decoded %s image has no pixels", format)
	}

	return img, format, nil
}

// DecodeLimited reads the image header first and refuses images whose
// declared width*height exceeds maxPixels, before any pixel buffer is
// allocated. A maxPixels <= 0 disables the check.
func DecodeLimited(data []byte, maxPixels int64) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, fmt.Errorf("%s image declares no pixels", format)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && pixels > maxPixels {
		return nil, format, fmt.Errorf("%w: %s image is %dx%d, limit is %d pixels",
			ErrTooManyPixels, format, cfg.Width, cfg.Height, maxPixels)
	}

	return Decode(data)
}
