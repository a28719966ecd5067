// Package material turns ray outcomes into colors: the accretion disk ramp and
// the shading of scene bodies.
package material

import (
	"github.com/df07/go-geodesic-raytracer/pkg/core"
)

// Material shades the point where a ray stopped on a scene body
type Material interface {
	Shade(hit SurfaceInteraction) core.RGBA
}

// SurfaceInteraction describes a ray stopping inside a body's visual sphere
type SurfaceInteraction struct {
	Point  core.Vec3 // Where the integrator detected the hit
	Centre core.Vec3 // Centre of the body that was hit
	Eye    core.Vec3 // Camera position, which also acts as the light
}

// Normal returns the outward sphere normal at the hit point
func (s SurfaceInteraction) Normal() core.Vec3 {
	return s.Point.Subtract(s.Centre).Normalize()
}

// View returns the unit direction from the hit point back to the eye
func (s SurfaceInteraction) View() core.Vec3 {
	return s.Eye.Subtract(s.Point).Normalize()
}
