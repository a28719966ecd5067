package renderer

import (
	"math"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/integrator"
)

// Orbit limits and input sensitivities for drag and scroll
const (
	MinElevation    = 0.01
	MaxElevation    = math.Pi - 0.01
	MinOrbitRadius  = 1e10
	MaxOrbitRadius  = 1e13
	DragSensitivity = 0.01 // radians per pixel
	ZoomStep        = 1e9  // meters per scroll notch
)

// OrbitCamera circles the black hole at the origin
type OrbitCamera struct {
	Azimuth   float64 // radians, measured in the XZ plane from +X towards +Z
	Elevation float64 // radians from the +Y axis
	Radius    float64 // meters from the origin
}

// DefaultOrbitCamera starts in the disk plane, 2e11 m out on +X
func DefaultOrbitCamera() OrbitCamera {
	return OrbitCamera{Azimuth: 0, Elevation: math.Pi / 2, Radius: 2e11}
}

// Position returns the eye position; elevation is clamped away from the poles
func (o OrbitCamera) Position() core.Vec3 {
	e := max(MinElevation, min(MaxElevation, o.Elevation))
	sinE, cosE := math.Sincos(e)
	sinA, cosA := math.Sincos(o.Azimuth)
	return core.NewVec3(o.Radius*sinE*cosA, o.Radius*cosE, o.Radius*sinE*sinA)
}

// Drag rotates the orbit by a mouse movement in pixels
func (o OrbitCamera) Drag(dx, dy float64) OrbitCamera {
	o.Azimuth += dx * DragSensitivity
	o.Elevation = max(MinElevation, min(MaxElevation, o.Elevation-dy*DragSensitivity))
	return o
}

// Zoom moves the camera in by ZoomStep per positive scroll notch
func (o OrbitCamera) Zoom(notches float64) OrbitCamera {
	o.Radius = max(MinOrbitRadius, min(MaxOrbitRadius, o.Radius-notches*ZoomStep))
	return o
}

// Basis is an orthonormal camera frame
type Basis struct {
	Right, Up, Forward core.Vec3
}

// LookAtOrigin builds the frame for an eye looking at the origin with +Y as up.
// When the eye sits on the Y axis the +Z hint is used instead.
func LookAtOrigin(eye core.Vec3) Basis {
	forward := eye.Negate().Normalize()
	hint := core.NewVec3(0, 1, 0)
	if forward.Cross(hint).LengthSquared() < 1e-12 {
		hint = core.NewVec3(0, 0, 1)
	}
	right := forward.Cross(hint).Normalize()
	up := right.Cross(forward)
	return Basis{Right: right, Up: up, Forward: forward}
}

// CameraState is the per-frame snapshot the tracer reads
type CameraState struct {
	Position core.Vec3
	Basis
	VFov   float64 // vertical field of view in degrees
	Aspect float64 // width / height
}

// NewCameraState snapshots an orbit camera for an image of the given size
func NewCameraState(orbit OrbitCamera, vfov float64, width, height int) CameraState {
	eye := orbit.Position()
	return CameraState{
		Position: eye,
		Basis:    LookAtOrigin(eye),
		VFov:     vfov,
		Aspect:   float64(width) / float64(height),
	}
}

// TanHalfFov returns tan(VFov / 2)
func (c CameraState) TanHalfFov() float64 {
	return math.Tan(c.VFov * math.Pi / 360)
}

// RayDirection returns the unit direction through normalized device coordinates in [-1, 1]
func (c CameraState) RayDirection(ndcX, ndcY float64) core.Vec3 {
	t := c.TanHalfFov()
	return c.Right.Multiply(ndcX * c.Aspect * t).
		Add(c.Up.Multiply(ndcY * t)).
		Add(c.Forward).
		Normalize()
}

// InitialSample starts a photon at the eye heading along dir
func (c CameraState) InitialSample(dir core.Vec3, rs float64, cfg integrator.Config) integrator.RaySample {
	return integrator.NewRaySample(c.Position, dir, rs, cfg)
}

// PixelNDC maps pixel (i, j) plus a sub-pixel offset in [0, 1) to NDC.
// Row 0 is the top of the image.
func PixelNDC(i, j int, sx, sy float64, width, height int) (ndcX, ndcY float64) {
	ndcX = 2*(float64(i)+sx)/float64(width) - 1
	ndcY = 1 - 2*(float64(j)+sy)/float64(height)
	return ndcX, ndcY
}
