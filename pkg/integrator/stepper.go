package integrator

import "math"

// minLapse keeps f = 1 - r_s/r positive when an RK4 stage lands on or inside
// the horizon. The trace classifies such rays as captured afterwards.
const minLapse = 1e-12

// Derivatives evaluates the geodesic right-hand side at s. The returned State
// holds (dr, dθ, dφ, d²r, d²θ, d²φ).
func Derivatives(s State, E, rs, sinFloor float64) State {
	r := s.R
	f := max(1-rs/r, minLapse)

	sinTheta, cosTheta := math.Sincos(s.Theta)
	if math.Abs(sinTheta) < sinFloor {
		sinTheta = math.Copysign(sinFloor, sinTheta)
	}

	angular := s.DTheta*s.DTheta + sinTheta*sinTheta*s.DPhi*s.DPhi
	ef := E / f
	d2r := -(rs/(2*r*r))*f*ef*ef + (rs/(2*r*r*f))*s.DR*s.DR + r*angular
	d2theta := -2*s.DR*s.DTheta/r + sinTheta*cosTheta*s.DPhi*s.DPhi
	d2phi := -2*s.DR*s.DPhi/r - 2*(cosTheta/sinTheta)*s.DTheta*s.DPhi

	return State{
		R:      s.DR,
		Theta:  s.DTheta,
		Phi:    s.DPhi,
		DR:     d2r,
		DTheta: d2theta,
		DPhi:   d2phi,
	}
}

// captureLapse is the smallest lapse f = 1 - r_s/r a stage may reach. Closer
// in, E/f dominates the right-hand side and one step can throw the photon
// arbitrarily far out, so such steps count as falling through the horizon.
const captureLapse = 1e-3

// maxRadialSpeed bounds |Δr| / h for a step. Outside captureLapse the radial rate
// of a null ray stays under E/sqrt(captureLapse), about 32 for launched rays.
const maxRadialSpeed = 100

// radialSlack scales the null bound |dr| <= E/sqrt(f) to leave room for drift
const radialSlack = 2

// Step advances s by one affine step h using cfg.Scheme. ok is false when a
// stage reached the horizon or the lapse fell below captureLapse. It is also
// false when the result is non-finite or moves faster radially than a null ray
// can. The returned state is then meaningless and the ray counts as captured.
func Step(s State, E, rs, h float64, cfg Config) (next State, ok bool) {
	ok = true
	stage := func(st State) State {
		if !outsideHorizon(st, rs) {
			ok = false
		}
		return Derivatives(st, E, rs, cfg.SinFloor)
	}

	switch cfg.Scheme {
	case SchemeEuler:
		next = s.add(stage(s), h)
	default:
		k1 := stage(s)
		k2 := stage(s.add(k1, h/2))
		k3 := stage(s.add(k2, h/2))
		k4 := stage(s.add(k3, h))
		next = s.add(State{
			R:      k1.R + 2*k2.R + 2*k3.R + k4.R,
			Theta:  k1.Theta + 2*k2.Theta + 2*k3.Theta + k4.Theta,
			Phi:    k1.Phi + 2*k2.Phi + 2*k3.Phi + k4.Phi,
			DR:     k1.DR + 2*k2.DR + 2*k3.DR + k4.DR,
			DTheta: k1.DTheta + 2*k2.DTheta + 2*k3.DTheta + k4.DTheta,
			DPhi:   k1.DPhi + 2*k2.DPhi + 2*k3.DPhi + k4.DPhi,
		}, h/6)
	}

	if !outsideHorizon(next, rs) || !next.IsFinite() || math.Abs(next.R-s.R) > maxRadialSpeed*h {
		ok = false
	} else if math.Abs(next.DR) > radialSlack*E/math.Sqrt(1-rs/next.R) {
		ok = false
	}

	if math.Abs(math.Sin(next.Theta)) < cfg.PoleEpsilon {
		next.DPhi = 0
	}
	return next, ok
}

// outsideHorizon reports whether st is clear of the capture band around r_s
func outsideHorizon(st State, rs float64) bool {
	return st.R > rs && 1-rs/st.R >= captureLapse
}

// StepSize returns the adaptive affine step at radius r. It shrinks linearly
// inside the proximity band down to MinStepFraction of the base step.
func StepSize(r, rs float64, cfg Config) float64 {
	m := cfg.MinStepFraction
	proximity := (r - rs) / (cfg.ProximityBand * rs)
	proximity = max(0, min(1, proximity))
	return cfg.BaseStep * (m + (1-m)*proximity)
}
