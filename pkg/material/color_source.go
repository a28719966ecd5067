package material

import (
	"math"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
)

// ColorSource provides the albedo of a body at a given surface normal
type ColorSource interface {
	Evaluate(normal core.Vec3) core.Vec3
}

// SolidColor provides a uniform color
type SolidColor struct {
	Color core.Vec3
}

// NewSolidColor creates a new solid color source
func NewSolidColor(color core.Vec3) *SolidColor {
	return &SolidColor{Color: color}
}

// Evaluate returns the solid color regardless of the normal
func (s *SolidColor) Evaluate(normal core.Vec3) core.Vec3 {
	return s.Color
}

// LatitudeBands paints horizontal stripes, like the cloud bands of a gas giant.
// Bands are equal slices of latitude from the south pole up.
type LatitudeBands struct {
	Colors []core.Vec3
}

// NewLatitudeBands creates a banded color source; it needs at least one color
func NewLatitudeBands(colors ...core.Vec3) *LatitudeBands {
	return &LatitudeBands{Colors: colors}
}

// Evaluate picks the band containing the normal's latitude
func (b *LatitudeBands) Evaluate(normal core.Vec3) core.Vec3 {
	if len(b.Colors) == 0 {
		return core.Vec3{}
	}
	// asin maps y in [-1, 1] to latitude in [-π/2, π/2]
	lat := math.Asin(max(-1, min(1, normal.Y)))
	u := (lat + math.Pi/2) / math.Pi
	i := int(u * float64(len(b.Colors)))
	if i >= len(b.Colors) {
		i = len(b.Colors) - 1
	}
	return b.Colors[i]
}
