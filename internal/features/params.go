// Package features computes the per-photo feature vector fed to the theme
// classifier: the resized photo's RGB pixels followed by a histogram of
// oriented gradients.
package features

import (
	"fmt"
	"strings"

	"theme-mapper/internal/photo"
)

// BlockNorm selects how HOG block histograms are normalized.
type BlockNorm int

const (
	NormL1 BlockNorm = iota
	NormL2Hys
)

func (n BlockNorm) String() string {
	switch n {
	case NormL1:
		return "L1"
	case NormL2Hys:
		return "L2-Hys"
	default:
		return "unknown"
	}
}

// ParseBlockNorm maps a configuration name to a BlockNorm.
func ParseBlockNorm(s string) (BlockNorm, error) {
	switch strings.ToUpper(s) {
	case "L1":
		return NormL1, nil
	case "L2-HYS", "L2HYS":
		return NormL2Hys, nil
	}
	return 0, fmt.Errorf("unknown block norm %q", s)
}

// HOGParams configures the gradient histogram.
type HOGParams struct {
	Orientations  int
	PixelsPerCell int
	CellsPerBlock int
	BlockNorm     BlockNorm
}

// Params configures feature extraction.
type Params struct {
	ImageSize     int // photos are resized to ImageSize x ImageSize
	Interpolation photo.Interpolation
	HOG           HOGParams
}

// DefaultParams returns the parameters the training matrices are built with.
func DefaultParams() Params {
	return Params{
		ImageSize:     50,
		Interpolation: photo.InterpNearest,
		HOG: HOGParams{
			Orientations:  8,
			PixelsPerCell: 8,
			CellsPerBlock: 3,
			BlockNorm:     NormL1,
		},
	}
}

// Len returns the HOG descriptor length for a size x size image.
func (p HOGParams) Len(size int) int {
	blocks := p.blocksPerSide(size)
	if blocks < 1 {
		return 0
	}
	return blocks * blocks * p.CellsPerBlock * p.CellsPerBlock * p.Orientations
}

func (p HOGParams) blocksPerSide(size int) int {
	if p.PixelsPerCell <= 0 {
		return 0
	}
	return size/p.PixelsPerCell - p.CellsPerBlock + 1
}

// VectorLen returns the length of every vector produced with these params.
func (p Params) VectorLen() int {
	return p.ImageSize*p.ImageSize*3 + p.HOG.Len(p.ImageSize)
}

// Validate checks the parameters describe at least one HOG block.
func (p Params) Validate() error {
	if p.ImageSize <= 0 {
		return fmt.Errorf("image size must be positive, got %d", p.ImageSize)
	}
	if p.HOG.Orientations <= 0 || p.HOG.PixelsPerCell <= 0 || p.HOG.CellsPerBlock <= 0 {
		return fmt.Errorf("hog orientations, pixels per cell and cells per block must be positive")
	}
	if p.HOG.blocksPerSide(p.ImageSize) < 1 {
		return fmt.Errorf("image size %d too small for %d-cell blocks of %d px",
			p.ImageSize, p.HOG.CellsPerBlock, p.HOG.PixelsPerCell)
	}
	return nil
}
