package integrator

import (
	"math"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
)

// State is a photon's position and velocity in y-polar spherical coordinates
// around the black hole. The derivative of a State is also expressed as a State.
type State struct {
	R, Theta, Phi    float64
	DR, DTheta, DPhi float64
}

// add returns s + d*h, component-wise
func (s State) add(d State, h float64) State {
	return State{
		R:      s.R + d.R*h,
		Theta:  s.Theta + d.Theta*h,
		Phi:    s.Phi + d.Phi*h,
		DR:     s.DR + d.DR*h,
		DTheta: s.DTheta + d.DTheta*h,
		DPhi:   s.DPhi + d.DPhi*h,
	}
}

// IsFinite reports whether every component is a real number
func (s State) IsFinite() bool {
	for _, v := range [...]float64{s.R, s.Theta, s.Phi, s.DR, s.DTheta, s.DPhi} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Position returns the Cartesian position of the state
func (s State) Position() core.Vec3 {
	return core.Spherical{R: s.R, Theta: s.Theta, Phi: s.Phi}.Cartesian()
}

// RaySample is one photon being traced. E is fixed when the sample is created.
type RaySample struct {
	State
	E float64
}

// NewRaySample converts a Cartesian origin and direction into a spherical state
// and computes its energy invariant. Near the polar axis dφ is zeroed.
func NewRaySample(origin, direction core.Vec3, rs float64, cfg Config) RaySample {
	sph := core.ToSpherical(origin)
	dir := direction.Normalize()
	er, etheta, ephi := core.SphericalBasis(sph.Theta, sph.Phi)

	s := State{R: sph.R, Theta: sph.Theta, Phi: sph.Phi}
	s.DR = dir.Dot(er)
	if sph.R > 0 {
		s.DTheta = dir.Dot(etheta) / sph.R
		sinTheta := math.Sin(sph.Theta)
		if math.Abs(sinTheta) >= cfg.PoleEpsilon {
			s.DPhi = dir.Dot(ephi) / (sph.R * sinTheta)
		}
	}
	return RaySample{State: s, E: Energy(s, rs)}
}

// Energy evaluates E = f*sqrt(dr²/f + r²(dθ² + sin²θ dφ²)) with f = 1 - r_s/r.
// It returns 0 at or inside the horizon, where such rays are already captured.
func Energy(s State, rs float64) float64 {
	if !(s.R > rs) {
		return 0
	}
	f := 1 - rs/s.R
	sinTheta := math.Sin(s.Theta)
	angular := s.DTheta*s.DTheta + sinTheta*sinTheta*s.DPhi*s.DPhi
	return f * math.Sqrt(s.DR*s.DR/f+s.R*s.R*angular)
}
