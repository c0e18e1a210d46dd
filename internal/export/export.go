package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"time"

	"github.com/rmitchellscott/stippler/internal/imageprocessing"
	"github.com/rmitchellscott/stippler/internal/logging"
	"github.com/rmitchellscott/stippler/internal/surface"
)

// DefaultFilename is the name offered to the browser for every download
const DefaultFilename = "image.png"

// EncodingError reports an export that could not produce a file
type EncodingError struct {
	Reason string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("export failed: %s", e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Blob is an encoded file ready for download
type Blob struct {
	Filename    string
	ContentType string
	Data        []byte
	SHA256      string
	Width       int
	Height      int
	CreatedAt   time.Time
}

// Service encodes output surfaces to PNG files
type Service struct{}

// NewService creates an export service
func NewService() *Service {
	return &Service{}
}

// Export encodes out as a PNG named filename. It fails with EncodingError when
// out is missing or has never been rendered.
func (s *Service) Export(ctx context.Context, out *surface.Surface, filename string) (*Blob, error) {
	if !out.Rendered() {
		return nil, &EncodingError{Reason: "output surface has not been rendered"}
	}
	return s.Encode(ctx, out.Snapshot(), filename)
}

// Encode PNG-encodes a snapshot already taken from the output surface. The
// orchestrator uses it to encode off its loop.
func (s *Service) Encode(ctx context.Context, snapshot *image.RGBA, filename string) (*Blob, error) {
	if snapshot == nil {
		return nil, &EncodingError{Reason: "no output to encode"}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filename == "" {
		filename = DefaultFilename
	}

	start := time.Now()
	data, err := imageprocessing.EncodePNG(snapshot)
	if err != nil {
		return nil, &EncodingError{Reason: "png encoding", Err: err}
	}

	sum := sha256.Sum256(data)
	blob := &Blob{
		Filename:    filename,
		ContentType: "image/png",
		Data:        data,
		SHA256:      hex.EncodeToString(sum[:]),
		Width:       snapshot.Bounds().Dx(),
		Height:      snapshot.Bounds().Dy(),
		CreatedAt:   time.Now().UTC(),
	}

	logging.DebugWithComponent(logging.ComponentExport, "Output encoded",
		"filename", filename,
		"bytes", len(data),
		"width", blob.Width,
		"height", blob.Height,
		"duration", time.Since(start))

	return blob, nil
}
