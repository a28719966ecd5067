// Package warp computes the Flamm-paraboloid displacement used to bend the
// reference grid drawn around the black hole.
package warp

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/df07/go-geodesic-raytracer/pkg/physics"
)

// Params holds the visualization offsets applied to the paraboloid. They are
// tuned for screen placement, not derived from physics.
type Params struct {
	// ReferenceDepth is the fixed vertical separation used in the distance
	// term instead of the true elevation.
	ReferenceDepth float64
	// BodyOffset is added once per contributing body.
	BodyOffset float64
	// BaseOffset is added once per vertex.
	BaseOffset float64
}

// DefaultParams offsets the paraboloid so the whole grid hangs below the orbital plane.
// 2*sqrt(r_s*(17.7e10 - r_s)) is about 9.1e10 m for Sagittarius A*.
func DefaultParams() Params {
	return Params{
		ReferenceDepth: -3e10,
		BodyOffset:     -9.1e10,
		BaseOffset:     -3e10 - 9.1e10,
	}
}

// Contribution returns one body's paraboloid displacement at world (x, z).
// Inside the horizon the distance is clamped to r_s so the result stays finite.
func Contribution(body physics.Body, x, z float64, params Params) float64 {
	rs := body.SchwarzschildRadius()
	point := r3.Vec{X: x, Y: params.ReferenceDepth, Z: z}
	centre := r3.Vec{X: body.Position.X, Z: body.Position.Z}
	dist := math.Max(r3.Norm(r3.Sub(point, centre)), rs)
	return 2 * math.Sqrt(rs*(dist-rs))
}

// Field sums the contributions of a fixed set of bodies
type Field struct {
	bodies []physics.Body
	params Params
}

// NewField creates a field over every body in the catalog
func NewField(catalog *physics.Catalog, params Params) *Field {
	return &Field{bodies: catalog.All(), params: params}
}

// Height returns the summed warp displacement at world (x, z)
func (f *Field) Height(x, z float64) float64 {
	h := 0.0
	for _, b := range f.bodies {
		h += Contribution(b, x, z, f.params)
	}
	return h
}

// VertexY returns the grid vertex elevation: the height plus visualization offsets
func (f *Field) VertexY(x, z float64) float64 {
	return f.Height(x, z) + float64(len(f.bodies))*f.params.BodyOffset + f.params.BaseOffset
}
