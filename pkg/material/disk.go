package material

import (
	"github.com/df07/go-geodesic-raytracer/pkg/core"
)

// DiskRamp colors an accretion disk crossing. t is 0 at the inner edge
// (orange) and 1 at the outer edge (warm white); it is clamped to [0, 1].
func DiskRamp(t float64) core.RGBA {
	t = max(0, min(1, t))
	return core.RGBA{
		R: 1,
		G: 0.55 + 0.45*t,
		B: 0.1 * (1 - t),
		A: 1,
	}
}
