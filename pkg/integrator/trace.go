package integrator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/df07/go-geodesic-raytracer/pkg/core"
	"github.com/df07/go-geodesic-raytracer/pkg/physics"
)

// Outcome is the terminal state of a traced ray
type Outcome int

const (
	Captured Outcome = iota
	DiskHit
	ObjectHit
	Escaped
	Exhausted
)

func (o Outcome) String() string {
	switch o {
	case Captured:
		return "captured"
	case DiskHit:
		return "disk"
	case ObjectHit:
		return "object"
	case Escaped:
		return "escaped"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// NumOutcomes is the number of terminal outcomes
const NumOutcomes = int(Exhausted) + 1

// Outcomes lists every terminal outcome in classification order
var Outcomes = []Outcome{Captured, DiskHit, ObjectHit, Escaped, Exhausted}

// Result describes how and where a ray terminated
type Result struct {
	Outcome   Outcome
	Steps     int       // advances taken before termination
	Position  core.Vec3 // Cartesian position at termination
	DiskT     float64   // radial ramp parameter for DiskHit, 0 at the inner edge
	BodyIndex int       // index into the occluders for ObjectHit, -1 otherwise
	Final     State
}

// DiskT maps a plane-crossing cylindrical radius onto the disk ramp.
// ok is false when the crossing lies outside [DiskInner, DiskOuter] r_s.
func (c Config) DiskT(rho, rs float64) (t float64, ok bool) {
	inner := rs * c.DiskInner
	outer := rs * c.DiskOuter
	if rho < inner || rho > outer {
		return 0, false
	}
	return (rho - inner) / (outer - inner), true
}

// Trace integrates the sample until it terminates. Checks run after every
// advance in a fixed order: horizon, disk plane crossing, occluders, escape.
// A step that touched the horizon in any stage counts as captured. A ray still
// advancing after MaxSteps is Exhausted.
func Trace(sample RaySample, rs float64, occluders []physics.Body, cfg Config) Result {
	state := sample.State
	if !(state.R > rs) {
		return Result{Outcome: Captured, Position: state.Position(), BodyIndex: -1, Final: state}
	}

	prev := state.Position()
	for step := 1; step <= cfg.MaxSteps; step++ {
		next, ok := Step(state, sample.E, rs, StepSize(state.R, rs, cfg), cfg)
		if !ok {
			return Result{Outcome: Captured, Steps: step, Position: prev, BodyIndex: -1, Final: state}
		}
		state = next
		result := Result{Steps: step, BodyIndex: -1, Final: state}

		pos := state.Position()
		result.Position = pos

		if prev.Y*pos.Y < 0 {
			if t, ok := cfg.DiskT(math.Hypot(pos.X, pos.Z), rs); ok {
				result.Outcome = DiskHit
				result.DiskT = t
				return result
			}
		}

		for i, body := range occluders {
			if body.Contains(pos) {
				result.Outcome = ObjectHit
				result.BodyIndex = i
				return result
			}
		}

		if state.R > cfg.EscapeRadius {
			result.Outcome = Escaped
			return result
		}
		prev = pos
	}

	return Result{Outcome: Exhausted, Steps: cfg.MaxSteps, Position: prev, BodyIndex: -1, Final: state}
}

// Propagate advances the sample up to n adaptive steps with only the horizon
// check, calling visit after each step. It stops early when visit returns false
// and returns the number of steps taken.
func Propagate(sample RaySample, rs float64, cfg Config, n int, visit func(step int, s State) bool) int {
	state := sample.State
	if !(state.R > rs) {
		return 0
	}
	for step := 1; step <= n; step++ {
		next, ok := Step(state, sample.E, rs, StepSize(state.R, rs, cfg), cfg)
		if !ok {
			return step - 1
		}
		state = next
		if visit != nil && !visit(step, state) {
			return step
		}
	}
	return n
}

// Drift returns |E_k - E_0| / E_0 after each of up to n steps. It is empty when
// the sample carries no energy.
func Drift(sample RaySample, rs float64, cfg Config, n int) []float64 {
	if sample.E == 0 {
		return nil
	}
	drift := make([]float64, 0, n)
	Propagate(sample, rs, cfg, n, func(_ int, s State) bool {
		drift = append(drift, math.Abs(Energy(s, rs)-sample.E)/sample.E)
		return true
	})
	return drift
}

// MaxDrift returns the largest relative drift in the series, or 0 when empty
func MaxDrift(drift []float64) float64 {
	if len(drift) == 0 {
		return 0
	}
	return floats.Max(drift)
}
