// Package field provides electric field and potential samplers used by the
// drift processes. A sampler reports false when no field is configured at a
// location, which is not the same as a zero field.
package field

import (
	"gonum.org/v1/gonum/spatial/r3"
)

type Sampler interface {
	// FieldAt returns the field vector [V/m] at a lab-frame position.
	FieldAt(pos r3.Vec) (r3.Vec, bool)
	// PotentialAt returns the potential [V] at a position local to the
	// volume the sampler is attached to.
	PotentialAt(local r3.Vec) (float64, bool)
}

// None is a sampler with no field anywhere.
type None struct{}

func (None) FieldAt(r3.Vec) (r3.Vec, bool)     { return r3.Vec{}, false }
func (None) PotentialAt(r3.Vec) (float64, bool) { return 0, false }

// Uniform is a constant field E with potential V(x) = V0 - E.x.
type Uniform struct {
	E  r3.Vec
	V0 float64
}

func (u Uniform) FieldAt(r3.Vec) (r3.Vec, bool) {
	return u.E, true
}

func (u Uniform) PotentialAt(local r3.Vec) (float64, bool) {
	return u.V0 - r3.Dot(u.E, local), true
}

// FieldOnly exposes the field of a sampler but hides its potential, the way
// an analytic field without a potential map behaves.
type FieldOnly struct {
	Sampler
}

func (FieldOnly) PotentialAt(r3.Vec) (float64, bool) { return 0, false }
