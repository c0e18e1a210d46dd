package rendering

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/rmitchellscott/stippler/internal/surface"
)

// stippleStream is the fixed PCG stream; the seed comes from the parameters.
const stippleStream = 0x5717_9e37_79b9_7f4a

type part uint8

const (
	partRest part = iota // left as the source pixel
	partBody
	partFace
)

// mark is a grid of parts drawn at one position
type mark struct {
	cells  [][]part
	width  int
	height int
}

// baseMark uses '.' for rest, 'b' for body and 'f' for face cells
var baseMark = parseMark(
	".....",
	".bbb.",
	"bbff.",
	"bbbb.",
	".bbb.",
	".b.b.",
	".....",
)

func parseMark(rows ...string) mark {
	m := mark{cells: make([][]part, len(rows)), width: len(rows[0]), height: len(rows)}
	for y, row := range rows {
		m.cells[y] = make([]part, len(row))
		for x, c := range row {
			switch c {
			case 'b':
				m.cells[y][x] = partBody
			case 'f':
				m.cells[y][x] = partFace
			}
		}
	}
	return m
}

func (m mark) mirrored() mark {
	cells := make([][]part, m.height)
	for y := range cells {
		cells[y] = make([]part, m.width)
		for x := 0; x < m.width; x++ {
			cells[y][x] = m.cells[y][m.width-1-x]
		}
	}
	return mark{cells: cells, width: m.width, height: m.height}
}

func (m mark) scaled(n int) mark {
	if n <= 1 {
		return m
	}
	cells := make([][]part, m.height*n)
	for y := range cells {
		cells[y] = make([]part, m.width*n)
		for x := range cells[y] {
			cells[y][x] = m.cells[y/n][x/n]
		}
	}
	return mark{cells: cells, width: m.width * n, height: m.height * n}
}

// StippleRenderer scatters small two-tone marks over the image. Marks land
// more often on flat regions, and their colours are pushed away from the
// surrounding tone by the contrast parameter.
type StippleRenderer struct{}

// NewStippleRenderer creates the default mark renderer
func NewStippleRenderer() *StippleRenderer {
	return &StippleRenderer{}
}

func (s *StippleRenderer) Name() string {
	return "stipple"
}

func (s *StippleRenderer) Apply(width, height int, input, output *surface.Surface, size, count, contrast, random int) error {
	if err := checkSurfaces(width, height, input, output); err != nil {
		return err
	}

	src := input.Pixels()
	dst := output.Pixels()
	copy(dst.Pix, src.Pix)

	m := baseMark.scaled(size)
	flipped := m.mirrored()
	if count <= 0 || width <= m.width || height <= m.height {
		return nil
	}

	rng := rand.New(rand.NewPCG(stippleSeed(size, count, contrast, random), stippleStream))
	area := uint64(width) * uint64(height)
	threshold := float64(count)

	for x := 0; x < width-m.width; x++ {
		for y := 0; y < height-m.height; y++ {
			v := float64(rng.Uint64N(area))
			if v >= threshold {
				continue
			}
			score := flatness(src, m, x, y)
			if v >= score/255*threshold {
				continue
			}
			pattern := m
			if rng.IntN(2) == 1 {
				pattern = flipped
			}
			writeMark(src, dst, pattern, x, y, contrast, random, rng)
		}
	}
	return nil
}

func stippleSeed(size, count, contrast, random int) uint64 {
	return uint64(size)<<48 ^ uint64(count)<<24 ^ uint64(contrast)<<12 ^ uint64(random)
}

// flatness scores how uniform the window under m is: 255 for a flat patch,
// lower as the RMS deviation from the window mean grows.
func flatness(src *image.RGBA, m mark, x0, y0 int) float64 {
	var sum [3]int
	for dy := 0; dy < m.height; dy++ {
		for dx := 0; dx < m.width; dx++ {
			px := src.RGBAAt(x0+dx, y0+dy)
			sum[0] += int(px.R)
			sum[1] += int(px.G)
			sum[2] += int(px.B)
		}
	}

	n := m.width * m.height
	mean := [3]int{sum[0] / n, sum[1] / n, sum[2] / n}

	var sq float64
	for dy := 0; dy < m.height; dy++ {
		for dx := 0; dx < m.width; dx++ {
			px := src.RGBAAt(x0+dx, y0+dy)
			for i, c := range [3]uint8{px.R, px.G, px.B} {
				d := float64(int(c) - mean[i])
				sq += d * d
			}
		}
	}

	return 255 - math.Sqrt(sq/float64(3*n))
}

func writeMark(src, dst *image.RGBA, m mark, x0, y0, contrast, random int, rng *rand.Rand) {
	var sums [3][4]int
	for dy, row := range m.cells {
		for dx, p := range row {
			px := src.RGBAAt(x0+dx, y0+dy)
			sums[p][0] += int(px.R)
			sums[p][1] += int(px.G)
			sums[p][2] += int(px.B)
			sums[p][3]++
		}
	}

	var means [3][3]int
	for p := range sums {
		if sums[p][3] == 0 {
			continue
		}
		for i := 0; i < 3; i++ {
			means[p][i] = sums[p][i] / sums[p][3]
		}
	}

	off := contrast
	if random > 0 {
		off += rng.IntN(random)
	}
	limit := off * off

	if channelDistance(means[partRest], means[partBody]) < limit {
		for i := 0; i < 3; i++ {
			means[partBody][i] = clampChannel(means[partRest][i] - off)
		}
	}
	if channelDistance(means[partFace], means[partBody]) < limit {
		for i := 0; i < 3; i++ {
			means[partFace][i] = clampChannel(means[partRest][i] + off)
		}
	}

	for dy, row := range m.cells {
		for dx, p := range row {
			if p == partRest {
				continue
			}
			c := means[p]
			i := dst.PixOffset(x0+dx, y0+dy)
			dst.Pix[i+0] = uint8(c[0])
			dst.Pix[i+1] = uint8(c[1])
			dst.Pix[i+2] = uint8(c[2])
			dst.Pix[i+3] = 255
		}
	}
}

// channelDistance is the mean absolute RGB difference
func channelDistance(a, b [3]int) int {
	d := 0
	for i := 0; i < 3; i++ {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		d += diff
	}
	return d / 3
}

func clampChannel(v int) int {
	return max(0, min(255, v))
}
