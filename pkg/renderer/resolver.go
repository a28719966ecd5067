package renderer

import (
	"fmt"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/material"
	"github.com/df07/go-geodesic-raytracer/pkg/physics"
)

// Snapshot is the immutable scene a render reads. Workers share it without locking.
type Snapshot struct {
	Catalog    *physics.Catalog
	Integrator integrator.Config

	occluders []physics.Body
	materials []material.Material
}

// NewSnapshot freezes a catalog for rendering. materials is indexed like
// catalog.Bodies(); missing or nil entries shade with a headlamp of the body color.
func NewSnapshot(catalog *physics.Catalog, cfg integrator.Config, materials []material.Material) (*Snapshot, error) {
	if catalog == nil {
		return nil, fmt.Errorf("snapshot needs a catalog")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bodies := catalog.Bodies()
	if len(materials) > len(bodies) {
		return nil, fmt.Errorf("%d materials for %d scene bodies", len(materials), len(bodies))
	}

	resolved := make([]material.Material, len(bodies))
	for i, b := range bodies {
		if i < len(materials) && materials[i] != nil {
			resolved[i] = materials[i]
		} else {
			resolved[i] = material.NewHeadlamp(b.Color)
		}
	}
	return &Snapshot{Catalog: catalog, Integrator: cfg, occluders: bodies, materials: resolved}, nil
}

// SchwarzschildRadius returns r_s of the black hole
func (s *Snapshot) SchwarzschildRadius() float64 {
	return s.Catalog.BlackHole().SchwarzschildRadius()
}

// Occluders returns the scene bodies rays can hit, in material order
func (s *Snapshot) Occluders() []physics.Body {
	return s.occluders
}

// Resolve maps a terminated ray to its color
func (s *Snapshot) Resolve(res integrator.Result, eye core.Vec3) core.RGBA {
	switch res.Outcome {
	case integrator.Captured:
		return core.Opaque(core.Vec3{})
	case integrator.DiskHit:
		return material.DiskRamp(res.DiskT)
	case integrator.ObjectHit:
		if res.BodyIndex < 0 || res.BodyIndex >= len(s.occluders) {
			return core.Transparent
		}
		return s.materials[res.BodyIndex].Shade(material.SurfaceInteraction{
			Point:  res.Position,
			Centre: s.occluders[res.BodyIndex].Position,
			Eye:    eye,
		})
	default:
		return core.Transparent
	}
}

// TracePixel traces the ray through NDC (ndcX, ndcY) and returns its color
// along with the raw integration result. The scheme comes from the snapshot's
// integrator config.
func TracePixel(camera CameraState, ndcX, ndcY float64, snapshot *Snapshot) (core.RGBA, integrator.Result) {
	rs := snapshot.SchwarzschildRadius()
	dir := camera.RayDirection(ndcX, ndcY)
	sample := camera.InitialSample(dir, rs, snapshot.Integrator)
	res := integrator.Trace(sample, rs, snapshot.occluders, snapshot.Integrator)
	return snapshot.Resolve(res, camera.Position), res
}
