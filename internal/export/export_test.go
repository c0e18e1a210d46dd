package export

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"image/color"
	"image/png"
	"testing"

	"github.com/rmitchellscott/stippler/internal/surface"
)

func TestExportUnrenderedSurface(t *testing.T) {
	svc := NewService()

	tests := map[string]*surface.Surface{
		"nil surface":    nil,
		"never rendered": surface.New(10, 10),
	}
	for name, out := range tests {
		t.Run(name, func(t *testing.T) {
			blob, err := svc.Export(context.Background(), out, DefaultFilename)
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Fatalf("expected EncodingError, got %v", err)
			}
			if blob != nil {
				t.Error("no blob should be produced")
			}
		})
	}
}

func TestExportRenderedSurface(t *testing.T) {
	out := surface.New(6, 4)
	out.Pixels().SetRGBA(2, 3, color.RGBA{R: 200, G: 10, B: 30, A: 255})
	out.MarkRendered()

	blob, err := NewService().Export(context.Background(), out, "")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if blob.Filename != "image.png" {
		t.Errorf("Filename = %q, want image.png", blob.Filename)
	}
	if blob.ContentType != "image/png" {
		t.Errorf("ContentType = %q", blob.ContentType)
	}
	if blob.Width != 6 || blob.Height != 4 {
		t.Errorf("dimensions = %dx%d", blob.Width, blob.Height)
	}

	sum := sha256.Sum256(blob.Data)
	if blob.SHA256 != hex.EncodeToString(sum[:]) {
		t.Error("SHA256 does not match data")
	}

	img, err := png.Decode(bytes.NewReader(blob.Data))
	if err != nil {
		t.Fatalf("exported data is not a PNG: %v", err)
	}
	r, g, b, a := img.At(2, 3).RGBA()
	if r>>8 != 200 || g>>8 != 10 || b>>8 != 30 || a>>8 != 255 {
		t.Errorf("pixel = %d,%d,%d,%d", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestEncodeHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := surface.New(2, 2)
	if _, err := NewService().Encode(ctx, out.Snapshot(), "x.png"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEncodeNilSnapshot(t *testing.T) {
	var encErr *EncodingError
	if _, err := NewService().Encode(context.Background(), nil, "x.png"); !errors.As(err, &encErr) {
		t.Errorf("expected EncodingError, got %v", err)
	}
}
