// Package colorutil provides the chart and map colors.
package colorutil

import (
	"image/color"
	"math"
)

// Fixed colors used by the renderers.
var (
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Blue  = color.RGBA{R: 0, G: 0, B: 255, A: 255}

	// NotTested fills countries without an assigned theme.
	NotTested = color.RGBA{R: 77, G: 77, B: 77, A: 255}
)

// Source supplies uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// Palette returns n colors with evenly spaced hues, lightness in
// [0.50, 0.60) and saturation in [0.90, 1.00).
func Palette(n int, rng Source) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		h := float64(i) / float64(n)
		l := (50 + rng.Float64()*10) / 100
		s := (90 + rng.Float64()*10) / 100
		out[i] = HLSToRGB(h, l, s)
	}
	return out
}

// HLSToRGB converts hue, lightness and saturation in [0, 1] to an opaque
// color.
func HLSToRGB(h, l, s float64) color.RGBA {
	if s == 0 {
		v := to8(l)
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}
	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2
	return color.RGBA{
		R: to8(hueToChannel(m1, m2, h+1.0/3)),
		G: to8(hueToChannel(m1, m2, h)),
		B: to8(hueToChannel(m1, m2, h-1.0/3)),
		A: 255,
	}
}

func hueToChannel(m1, m2, h float64) float64 {
	h = h - math.Floor(h)
	switch {
	case h < 1.0/6:
		return m1 + (m2-m1)*h*6
	case h < 0.5:
		return m2
	case h < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-h)*6
	default:
		return m1
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

// rgbToHLS converts an 8-bit color to hue, lightness and saturation in
// [0, 1].
func rgbToHLS(c color.RGBA) (h, l, s float64) {
	r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	l = (maxC + minC) / 2
	diff := maxC - minC
	if diff == 0 {
		return 0, l, 0
	}
	if l <= 0.5 {
		s = diff / (maxC + minC)
	} else {
		s = diff / (2 - maxC - minC)
	}
	switch maxC {
	case r:
		h = math.Mod((g-b)/diff, 6)
	case g:
		h = (b-r)/diff + 2
	default:
		h = (r-g)/diff + 4
	}
	h /= 6
	if h < 0 {
		h++
	}
	return h, l, s
}
