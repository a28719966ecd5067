package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
)

// Validation errors returned by body and catalog constructors
var (
	ErrNonPositiveMass   = errors.New("physics: mass must be positive")
	ErrNonPositiveRadius = errors.New("physics: visual radius must be positive")
	ErrNonFinite         = errors.New("physics: value is NaN or infinite")
	ErrInvalidBody       = errors.New("physics: invalid body for catalog")
)

// Kind tags the variant a Body represents
type Kind int

const (
	KindBlackHole Kind = iota
	KindSceneBody
)

func (k Kind) String() string {
	switch k {
	case KindBlackHole:
		return "black-hole"
	case KindSceneBody:
		return "scene-body"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Body is a massive object. Both variants warp the grid; only scene bodies
// have a visual radius and color and can occlude rays.
type Body struct {
	Kind         Kind
	Name         string
	Position     core.Vec3
	Mass         float64
	VisualRadius float64   // zero for black holes
	Color        core.Vec3 // linear RGB, zero for black holes

	rs float64
}

// NewBlackHole creates the black hole at the coordinate origin
func NewBlackHole(mass float64) (Body, error) {
	if err := checkMass("black hole", mass); err != nil {
		return Body{}, err
	}
	return Body{
		Kind: KindBlackHole,
		Name: "black hole",
		Mass: mass,
		rs:   SchwarzschildRadius(mass),
	}, nil
}

// NewSceneBody creates a visible massive body such as a companion star
func NewSceneBody(name string, position core.Vec3, mass, visualRadius float64, color core.Vec3) (Body, error) {
	if err := checkMass(name, mass); err != nil {
		return Body{}, err
	}
	if !position.IsFinite() || !color.IsFinite() || math.IsNaN(visualRadius) || math.IsInf(visualRadius, 0) {
		return Body{}, fmt.Errorf("body %q: %w", name, ErrNonFinite)
	}
	if visualRadius <= 0 {
		return Body{}, fmt.Errorf("body %q: radius %g: %w", name, visualRadius, ErrNonPositiveRadius)
	}
	return Body{
		Kind:         KindSceneBody,
		Name:         name,
		Position:     position,
		Mass:         mass,
		VisualRadius: visualRadius,
		Color:        color,
		rs:           SchwarzschildRadius(mass),
	}, nil
}

func checkMass(name string, mass float64) error {
	if math.IsNaN(mass) || math.IsInf(mass, 0) {
		return fmt.Errorf("body %q: %w", name, ErrNonFinite)
	}
	if mass <= 0 {
		return fmt.Errorf("body %q: mass %g: %w", name, mass, ErrNonPositiveMass)
	}
	return nil
}

// SchwarzschildRadius returns the cached event-horizon radius
func (b Body) SchwarzschildRadius() float64 {
	return b.rs
}

// Occludes reports whether the body takes part in ray intersection tests
func (b Body) Occludes() bool {
	return b.Kind == KindSceneBody
}

// Contains reports whether p lies inside the body's visual sphere
func (b Body) Contains(p core.Vec3) bool {
	return b.Occludes() && p.Distance(b.Position) <= b.VisualRadius
}
