package material

import (
	"math"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
)

// Ambient is the fraction of albedo a body keeps when facing away from the eye
const Ambient = 0.1

// Headlamp is diffuse shading lit by a point light at the camera
type Headlamp struct {
	Albedo ColorSource
}

// NewHeadlamp creates a headlamp material with a solid albedo
func NewHeadlamp(albedo core.Vec3) *Headlamp {
	return &Headlamp{Albedo: NewSolidColor(albedo)}
}

// NewTexturedHeadlamp creates a headlamp material with a varying albedo
func NewTexturedHeadlamp(albedo ColorSource) *Headlamp {
	return &Headlamp{Albedo: albedo}
}

// Shade returns albedo * (ambient + (1 - ambient) * max(N·V, 0)) at full opacity
func (h *Headlamp) Shade(hit SurfaceInteraction) core.RGBA {
	n := hit.Normal()
	lambert := math.Max(n.Dot(hit.View()), 0)
	albedo := h.Albedo.Evaluate(n)
	return core.Opaque(albedo.Multiply(Ambient + (1-Ambient)*lambert))
}
