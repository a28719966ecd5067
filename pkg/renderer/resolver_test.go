package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
	"github.com/df07/go-geodesic-raytracer/pkg/material"
	"github.com/df07/go-geodesic-raytracer/pkg/physics"
)

func newTestSnapshot(t *testing.T, bodies ...physics.Body) *Snapshot {
	t.Helper()
	bh, err := physics.NewBlackHole(physics.SagittariusAMass)
	if err != nil {
		t.Fatalf("NewBlackHole failed: %v", err)
	}
	catalog, err := physics.NewCatalog(bh, bodies...)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	snapshot, err := NewSnapshot(catalog, integrator.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	return snapshot
}

func TestNewSnapshotValidation(t *testing.T) {
	bh, _ := physics.NewBlackHole(physics.SagittariusAMass)
	catalog, _ := physics.NewCatalog(bh)

	if _, err := NewSnapshot(nil, integrator.DefaultConfig(), nil); err == nil {
		t.Error("Expected an error for a nil catalog")
	}

	bad := integrator.DefaultConfig()
	bad.MaxSteps = 0
	if _, err := NewSnapshot(catalog, bad, nil); err == nil {
		t.Error("Expected an error for an invalid integrator config")
	}

	extra := []material.Material{material.NewEmissive(core.NewVec3(1, 1, 1))}
	if _, err := NewSnapshot(catalog, integrator.DefaultConfig(), extra); err == nil {
		t.Error("Expected an error for more materials than bodies")
	}
}

func TestResolveOutcomes(t *testing.T) {
	star, err := physics.NewSceneBody("star", core.NewVec3(1e11, 0, 0), physics.SolarMass, 1e10, core.NewVec3(0.8, 0.6, 0.4))
	if err != nil {
		t.Fatal(err)
	}
	snapshot := newTestSnapshot(t, star)
	eye := core.NewVec3(0, 0, 0)

	tests := []struct {
		name     string
		result   integrator.Result
		expected core.RGBA
	}{
		{"captured is opaque black", integrator.Result{Outcome: integrator.Captured}, core.RGBA{A: 1}},
		{"escaped is transparent", integrator.Result{Outcome: integrator.Escaped}, core.Transparent},
		{"exhausted is transparent", integrator.Result{Outcome: integrator.Exhausted}, core.Transparent},
		{"disk inner edge", integrator.Result{Outcome: integrator.DiskHit, DiskT: 0}, core.RGBA{R: 1, G: 0.55, B: 0.1, A: 1}},
		{
			"object facing the eye gets full albedo",
			integrator.Result{Outcome: integrator.ObjectHit, BodyIndex: 0, Position: core.NewVec3(9e10, 0, 0)},
			core.RGBA{R: 0.8, G: 0.6, B: 0.4, A: 1},
		},
		{"object index out of range", integrator.Result{Outcome: integrator.ObjectHit, BodyIndex: 3}, core.Transparent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snapshot.Resolve(tt.result, eye)
			if math.Abs(got.R-tt.expected.R) > 1e-9 || math.Abs(got.G-tt.expected.G) > 1e-9 ||
				math.Abs(got.B-tt.expected.B) > 1e-9 || got.A != tt.expected.A {
				t.Errorf("Resolve() = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestResolveUsesCustomMaterial(t *testing.T) {
	star, _ := physics.NewSceneBody("star", core.NewVec3(1e11, 0, 0), physics.SolarMass, 1e10, core.NewVec3(1, 1, 1))
	bh, _ := physics.NewBlackHole(physics.SagittariusAMass)
	catalog, _ := physics.NewCatalog(bh, star)

	glow := core.NewVec3(1, 0.9, 0.5)
	snapshot, err := NewSnapshot(catalog, integrator.DefaultConfig(), []material.Material{material.NewEmissive(glow)})
	if err != nil {
		t.Fatal(err)
	}

	// The far side would be dark under a headlamp
	got := snapshot.Resolve(integrator.Result{Outcome: integrator.ObjectHit, BodyIndex: 0, Position: core.NewVec3(1.1e11, 0, 0)}, core.Vec3{})
	if got != core.Opaque(glow) {
		t.Errorf("Expected emissive color %v, got %+v", glow, got)
	}
}

func TestTracePixel(t *testing.T) {
	snapshot := newTestSnapshot(t)
	cam := NewCameraState(DefaultOrbitCamera(), 60, 800, 600)

	color, res := TracePixel(cam, 0, 0, snapshot)
	if res.Outcome != integrator.Captured {
		t.Errorf("Centre ray should fall into the hole, got %v", res.Outcome)
	}
	if color != (core.RGBA{A: 1}) {
		t.Errorf("Captured ray should be opaque black, got %+v", color)
	}

	color, res = TracePixel(cam, -1, 1, snapshot)
	if res.Outcome != integrator.Escaped {
		t.Errorf("Corner ray should escape, got %v", res.Outcome)
	}
	if color != core.Transparent {
		t.Errorf("Escaped ray should be transparent, got %+v", color)
	}
}

func TestTracePixelSeesDiskFromAbove(t *testing.T) {
	snapshot := newTestSnapshot(t)
	rs := snapshot.SchwarzschildRadius()
	cam := NewCameraState(OrbitCamera{Elevation: 0.3, Radius: 40 * rs}, 60, 800, 600)

	// Aim at the outer half of the band; lensing pulls the crossing inward
	target := core.NewVec3(0, 0, 4.5*rs)
	dir := target.Subtract(cam.Position).Normalize()
	sample := cam.InitialSample(dir, rs, snapshot.Integrator)
	res := integrator.Trace(sample, rs, nil, snapshot.Integrator)

	if res.Outcome != integrator.DiskHit {
		t.Fatalf("Expected the ray to land on the disk, got %v", res.Outcome)
	}
	if res.DiskT < 0 || res.DiskT > 1 {
		t.Errorf("Expected ramp parameter inside [0, 1], got %f", res.DiskT)
	}
}
