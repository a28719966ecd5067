package core

import (
	"image/color"
	"math"
)

// RGBA is a straight (non-premultiplied) color with components in [0, 1]
type RGBA struct {
	R, G, B, A float64
}

// Transparent is the background outcome for rays that produce no hit
var Transparent = RGBA{}

// Opaque builds a fully opaque color from an RGB vector
func Opaque(rgb Vec3) RGBA {
	return RGBA{R: rgb.X, G: rgb.Y, B: rgb.Z, A: 1}
}

// RGB returns the color channels as a vector
func (c RGBA) RGB() Vec3 {
	return Vec3{c.R, c.G, c.B}
}

// Premultiplied returns the color channels scaled by alpha
func (c RGBA) Premultiplied() Vec3 {
	return c.RGB().Multiply(c.A)
}

// ToNRGBA converts to an 8-bit straight-alpha color with clamping
func (c RGBA) ToNRGBA() color.NRGBA {
	return color.NRGBA{
		R: to8(c.R),
		G: to8(c.G),
		B: to8(c.B),
		A: to8(c.A),
	}
}

func to8(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Round(255 * max(0, min(1, v))))
}
