package features

import "math"

const normEps = 1e-5

// gradientField holds per-pixel gradient magnitude and direction (degrees,
// 0-360) in row-major order.
type gradientField struct {
	W, H  int
	Mag   []float64
	Angle []float64
}

// describe builds the HOG descriptor from a gradient field. Orientation is
// unsigned (0-180). Each cell histogram is the mean magnitude per bin over
// the cell; blocks of CellsPerBlock x CellsPerBlock cells slide by one cell
// and are normalized independently.
func (p HOGParams) describe(g gradientField) []float64 {
	ppc := p.PixelsPerCell
	cellsX, cellsY := g.W/ppc, g.H/ppc
	binWidth := 180.0 / float64(p.Orientations)

	cells := make([]float64, cellsX*cellsY*p.Orientations)
	for y := 0; y < cellsY*ppc; y++ {
		for x := 0; x < cellsX*ppc; x++ {
			i := y*g.W + x
			a := math.Mod(g.Angle[i], 180)
			if a < 0 {
				a += 180
			}
			bin := int(a / binWidth)
			if bin >= p.Orientations {
				bin = p.Orientations - 1
			}
			c := (y/ppc)*cellsX + x/ppc
			cells[c*p.Orientations+bin] += g.Mag[i]
		}
	}
	area := float64(ppc * ppc)
	for i := range cells {
		cells[i] /= area
	}

	cpb := p.CellsPerBlock
	blocksX, blocksY := cellsX-cpb+1, cellsY-cpb+1
	if blocksX < 1 || blocksY < 1 {
		return nil
	}

	out := make([]float64, 0, blocksX*blocksY*cpb*cpb*p.Orientations)
	block := make([]float64, cpb*cpb*p.Orientations)
	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			k := 0
			for cy := by; cy < by+cpb; cy++ {
				for cx := bx; cx < bx+cpb; cx++ {
					c := cy*cellsX + cx
					copy(block[k:k+p.Orientations], cells[c*p.Orientations:(c+1)*p.Orientations])
					k += p.Orientations
				}
			}
			p.BlockNorm.apply(block)
			out = append(out, block...)
		}
	}
	return out
}

// apply normalizes v in place.
func (n BlockNorm) apply(v []float64) {
	switch n {
	case NormL2Hys:
		l2Normalize(v)
		for i := range v {
			if v[i] > 0.2 {
				v[i] = 0.2
			}
		}
		l2Normalize(v)
	default:
		sum := 0.0
		for _, x := range v {
			sum += math.Abs(x)
		}
		for i := range v {
			v[i] /= sum + normEps
		}
	}
}

func l2Normalize(v []float64) {
	sq := 0.0
	for _, x := range v {
		sq += x * x
	}
	d := math.Sqrt(sq + normEps*normEps)
	for i := range v {
		v[i] /= d
	}
}
