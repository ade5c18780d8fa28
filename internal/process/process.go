// Package process is the contract between the drift interaction models and
// the transport kernel that steps carriers.
package process

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/field"
)

// Unlimited is the mean free path of a process that never limits a step.
var Unlimited = math.Inf(1)

type Condition int

const (
	NotForced Condition = iota
	// Forced processes are invoked at every step regardless of the length
	// they propose.
	Forced
)

// Rand supplies uniform numbers in [0,1); *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Step is what the kernel knows about the step just taken.
type Step struct {
	Track *carrier.Carrier

	Length          float64 // [m]
	BoundaryLimited bool    // the step ended on a volume boundary

	PreVolume  string
	PostVolume string

	PostPosition r3.Vec  // lab frame
	PostVelocity float64 // [m/s]
}

// Geometry is the lattice and geometry database of the kernel.
type Geometry interface {
	// Lattice returns the lattice attached to a volume.
	Lattice(volume string) (string, bool)
	// Field returns the field attached to a volume.
	Field(volume string) (field.Sampler, bool)
	// ExitNormal returns the outward normal of the surface at pos.
	ExitNormal(pos r3.Vec) (r3.Vec, bool)
	// ToLocal converts a lab position to the frame of the volume.
	ToLocal(volume string, pos r3.Vec) r3.Vec
}

// Process is a discrete interaction model invoked by the kernel.
type Process interface {
	Name() string
	Applicable(kind carrier.Kind) bool
	MeanFreePath(step *Step) (float64, Condition)
	DoInteraction(step *Step) Outcome
}
