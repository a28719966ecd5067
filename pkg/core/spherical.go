package core

import "math"

// Spherical is a point in y-polar spherical coordinates about the origin:
// Theta is measured from the +Y axis and Phi runs in the XZ plane from +X towards +Z.
type Spherical struct {
	R, Theta, Phi float64
}

// ToSpherical converts a Cartesian point to spherical coordinates.
// The origin maps to the zero value.
func ToSpherical(p Vec3) Spherical {
	r := p.Length()
	if r == 0 {
		return Spherical{}
	}
	return Spherical{
		R:     r,
		Theta: math.Acos(max(-1, min(1, p.Y/r))),
		Phi:   math.Atan2(p.Z, p.X),
	}
}

// Cartesian converts back to world coordinates
func (s Spherical) Cartesian() Vec3 {
	sinTheta, cosTheta := math.Sincos(s.Theta)
	sinPhi, cosPhi := math.Sincos(s.Phi)
	return Vec3{
		X: s.R * sinTheta * cosPhi,
		Y: s.R * cosTheta,
		Z: s.R * sinTheta * sinPhi,
	}
}

// SphericalBasis returns the unit vectors (e_r, e_theta, e_phi) at the given angles
func SphericalBasis(theta, phi float64) (er, etheta, ephi Vec3) {
	sinTheta, cosTheta := math.Sincos(theta)
	sinPhi, cosPhi := math.Sincos(phi)
	er = Vec3{sinTheta * cosPhi, cosTheta, sinTheta * sinPhi}
	etheta = Vec3{cosTheta * cosPhi, -sinTheta, cosTheta * sinPhi}
	ephi = Vec3{-sinPhi, 0, cosPhi}
	return er, etheta, ephi
}
