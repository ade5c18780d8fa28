package carrier

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/constants"
	"github.com/wildstyl3r/cmpdrift/internal/utils"
)

type Kind int

const (
	Electron Kind = iota + 1
	Hole
)

func (k Kind) String() string {
	switch k {
	case Electron:
		return "electron"
	case Hole:
		return "hole"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "electron", "e", "e-":
		return Electron, nil
	case "hole", "h", "h+":
		return Hole, nil
	}
	return 0, fmt.Errorf("unknown carrier kind %q", s)
}

type TrackID int

// Carrier is the state of one drifting charge as seen by the interaction
// models. Positions are in the lab frame [m], energies in [eV].
type Carrier struct {
	Kind    Kind
	TrackID TrackID

	Position      r3.Vec
	Direction     r3.Vec // unit
	KineticEnergy float64
	WaveVector    r3.Vec // [1/m]

	Lattice string // lattice of the volume the carrier was created in
	Weight  float64

	StartEnergy   float64
	StartPosition r3.Vec

	Killed bool
}

func New(id TrackID, kind Kind, position, direction r3.Vec, eKinetic float64, lattice string) *Carrier {
	c := &Carrier{
		Kind:          kind,
		TrackID:       id,
		Position:      position,
		Direction:     r3.Unit(direction),
		KineticEnergy: eKinetic,
		Lattice:       lattice,
		Weight:        1,
		StartEnergy:   eKinetic,
		StartPosition: position,
	}
	c.UpdateWaveVector()
	return c
}

// UpdateWaveVector sets k = sqrt(2 m E)/hbar along the current direction.
func (c *Carrier) UpdateWaveVector() {
	k := math.Sqrt(2*constants.ElectronMass*utils.EV2J(c.KineticEnergy)) / constants.HBar
	c.WaveVector = r3.Scale(k, c.Direction)
}

// Velocity returns the free-electron speed for the current energy [m/s].
func (c *Carrier) Velocity() float64 {
	return utils.EV2electronVelocity(c.KineticEnergy)
}

func (c *Carrier) Move(distance float64) {
	c.Position = r3.Add(c.Position, r3.Scale(distance, c.Direction))
}
