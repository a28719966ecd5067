package material

import (
	"github.com/df07/go-geodesic-raytracer/pkg/core"
)

// Emissive is an unlit body such as a star: its color ignores the viewing angle
type Emissive struct {
	Emission core.Vec3
}

// NewEmissive creates a new emissive material
func NewEmissive(emission core.Vec3) *Emissive {
	return &Emissive{Emission: emission}
}

// Shade returns the emission at full opacity
func (e *Emissive) Shade(hit SurfaceInteraction) core.RGBA {
	return core.Opaque(e.Emission)
}
