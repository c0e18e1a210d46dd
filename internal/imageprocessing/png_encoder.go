package imageprocessing

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// bufferPool lets consecutive exports reuse zlib buffers
type bufferPool struct {
	pool sync.Pool
}

func (p *bufferPool) Get() *png.EncoderBuffer {
	if b, ok := p.pool.Get().(*png.EncoderBuffer); ok {
		return b
	}
	return nil
}

func (p *bufferPool) Put(b *png.EncoderBuffer) {
	p.pool.Put(b)
}

var encoder = &png.Encoder{
	CompressionLevel: png.BestSpeed,
	BufferPool:       &bufferPool{},
}

// EncodePNG encodes img as a PNG file
func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("image is nil")
	}

	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
