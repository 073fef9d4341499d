package colorutil

import (
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHLSToRGBPrimaries(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 255, A: 255}, HLSToRGB(0, 0.5, 1))
	assert.Equal(t, color.RGBA{G: 255, A: 255}, HLSToRGB(1.0/3, 0.5, 1))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, HLSToRGB(2.0/3, 0.5, 1))
	assert.Equal(t, color.RGBA{R: 128, G: 128, B: 128, A: 255}, HLSToRGB(0.3, 0.5, 0))
}

func TestRGBToHLSInverts(t *testing.T) {
	h, l, s := rgbToHLS(color.RGBA{G: 255, A: 255})
	assert.InDelta(t, 1.0/3, h, 1e-9)
	assert.InDelta(t, 0.5, l, 1e-9)
	assert.InDelta(t, 1.0, s, 1e-9)
}

func TestPaletteRanges(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	colors := Palette(6, rng)
	require.Len(t, colors, 6)

	for i, c := range colors {
		h, l, s := rgbToHLS(c)
		assert.InDelta(t, float64(i)/6, h, 0.01, "hue %d", i)
		assert.GreaterOrEqual(t, l, 0.49)
		assert.LessOrEqual(t, l, 0.61)
		assert.GreaterOrEqual(t, s, 0.88)
		assert.Equal(t, uint8(255), c.A)
	}
}

func TestPaletteEmpty(t *testing.T) {
	assert.Empty(t, Palette(0, rand.New(rand.NewPCG(1, 2))))
}
