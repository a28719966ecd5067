// Package integrator advances photon states along Schwarzschild null geodesics
// and classifies where each ray ends up.
package integrator

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidConfig is wrapped by every Config validation failure
var ErrInvalidConfig = errors.New("integrator: invalid config")

// Scheme selects the stepping method for a whole render
type Scheme int

const (
	SchemeRK4 Scheme = iota
	SchemeEuler
)

func (s Scheme) String() string {
	switch s {
	case SchemeRK4:
		return "rk4"
	case SchemeEuler:
		return "euler"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// ParseScheme accepts "rk4" or "euler", case-insensitively
func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rk4", "runge-kutta":
		return SchemeRK4, nil
	case "euler", "first-order":
		return SchemeEuler, nil
	default:
		return SchemeRK4, fmt.Errorf("unknown integration scheme %q (use rk4 or euler)", name)
	}
}

// UnmarshalText lets a Scheme be read straight from config files and flags
func (s *Scheme) UnmarshalText(text []byte) error {
	parsed, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Config holds the integration constants shared by every ray of a render
type Config struct {
	BaseStep        float64 // affine step far from the hole
	MaxSteps        int     // bounded-work cap per ray
	EscapeRadius    float64 // rays beyond this radius have escaped
	DiskInner       float64 // accretion disk inner edge in units of r_s
	DiskOuter       float64 // accretion disk outer edge in units of r_s
	PoleEpsilon     float64 // |sin θ| below this forces dφ to zero
	SinFloor        float64 // lower bound on sin θ in the RHS denominators
	ProximityBand   float64 // width, in units of r_s, over which the step shrinks
	MinStepFraction float64 // step fraction kept right at the horizon
	Scheme          Scheme
}

// DefaultConfig returns the integration constants for Sagittarius A* scale scenes
func DefaultConfig() Config {
	return Config{
		BaseStep:        5e9,
		MaxSteps:        3000,
		EscapeRadius:    1e12,
		DiskInner:       2.2,
		DiskOuter:       5.2,
		PoleEpsilon:     1e-3,
		SinFloor:        1e-6,
		ProximityBand:   5,
		MinStepFraction: 0.02,
		Scheme:          SchemeRK4,
	}
}

// Validate checks that every constant is usable
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"base step", c.BaseStep},
		{"escape radius", c.EscapeRadius},
		{"disk inner radius", c.DiskInner},
		{"disk outer radius", c.DiskOuter},
		{"pole epsilon", c.PoleEpsilon},
		{"sin floor", c.SinFloor},
		{"proximity band", c.ProximityBand},
	}
	for _, p := range positive {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			return fmt.Errorf("%w: %s must be positive and finite, got %g", ErrInvalidConfig, p.name, p.value)
		}
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("%w: max steps must be at least 1, got %d", ErrInvalidConfig, c.MaxSteps)
	}
	if c.DiskOuter <= c.DiskInner {
		return fmt.Errorf("%w: disk outer radius %g must exceed inner radius %g", ErrInvalidConfig, c.DiskOuter, c.DiskInner)
	}
	if !(c.MinStepFraction > 0 && c.MinStepFraction <= 1) {
		return fmt.Errorf("%w: min step fraction must be in (0, 1], got %g", ErrInvalidConfig, c.MinStepFraction)
	}
	if c.Scheme != SchemeRK4 && c.Scheme != SchemeEuler {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Scheme)
	}
	return nil
}
