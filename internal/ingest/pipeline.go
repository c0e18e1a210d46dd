package ingest

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rmitchellscott/stippler/internal/imageprocessing"
	"github.com/rmitchellscott/stippler/internal/logging"
	"github.com/rmitchellscott/stippler/internal/surface"
)

// DecodeError reports bytes that could not be turned into an image
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failed: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ImageSource is a decoded image ready to be staged
type ImageSource struct {
	Pixels *image.RGBA
	Width  int
	Height int
	Format string
}

// Decoder turns raw bytes into an image and its format name
type Decoder func(data []byte) (image.Image, string, error)

// Options allows customization of the ingestion pipeline
type Options struct {
	// MaxDimension scales larger images down; 0 keeps the original size
	MaxDimension int
	// MaxPixels rejects images whose header declares more pixels;
	// 0 means imageprocessing.DefaultMaxPixels
	MaxPixels int64
	// Decoder replaces the default header-checked decoder; MaxPixels is
	// not applied to it
	Decoder Decoder
}

// Pipeline decodes uploads and stages them onto surfaces
type Pipeline struct {
	maxDimension int
	decode       Decoder
}

// NewPipeline creates a pipeline with the given options
func NewPipeline(opts Options) *Pipeline {
	decode := opts.Decoder
	if decode == nil {
		maxPixels := opts.MaxPixels
		if maxPixels == 0 {
			maxPixels = imageprocessing.DefaultMaxPixels
		}
		decode = func(data []byte) (image.Image, string, error) {
			return imageprocessing.DecodeLimited(data, maxPixels)
		}
	}
	return &Pipeline{
		maxDimension: opts.MaxDimension,
		decode:       decode,
	}
}

// Decode converts file bytes into an ImageSource. It is safe to call from
// several goroutines at once.
func (p *Pipeline) Decode(ctx context.Context, data []byte) (*ImageSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	img, format, err := p.decode(data)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img = imageprocessing.LimitDimension(img, p.maxDimension)
	pixels := imageprocessing.ToRGBA(img)

	src := &ImageSource{
		Pixels: pixels,
		Width:  pixels.Bounds().Dx(),
		Height: pixels.Bounds().Dy(),
		Format: format,
	}

	logging.DebugWithComponent(logging.ComponentIngest, "Image decoded",
		"format", format,
		"width", src.Width,
		"height", src.Height,
		"bytes", len(data),
		"duration", time.Since(start))

	return src, nil
}

// Stage creates input and output surfaces sized to src, both cleared, and
// paints src onto the input.
func (p *Pipeline) Stage(src *ImageSource) (input, output *surface.Surface) {
	input = surface.New(src.Width, src.Height)
	output = surface.New(src.Width, src.Height)
	input.Clear()
	output.Clear()
	input.Paint(src.Pixels)
	return input, output
}
