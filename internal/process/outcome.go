package process

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
)

type OutcomeKind int

const (
	NoAction OutcomeKind = iota
	ValleyReassigned
	Absorbed
	Reflected
	ElectrodeHit
)

var outcomeNames = [...]string{
	NoAction:         "none",
	ValleyReassigned: "valley",
	Absorbed:         "absorbed",
	Reflected:        "reflected",
	ElectrodeHit:     "electrode",
}

func (k OutcomeKind) String() string {
	if k >= 0 && int(k) < len(outcomeNames) {
		return outcomeNames[k]
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// OutcomeKinds lists every kind in declaration order.
func OutcomeKinds() []OutcomeKind {
	return []OutcomeKind{NoAction, ValleyReassigned, Absorbed, Reflected, ElectrodeHit}
}

// Outcome is the result of one DoInteraction call. Only the fields of its
// kind are meaningful.
type Outcome struct {
	Kind          OutcomeKind
	Valley        int     // ValleyReassigned
	EnergyDeposit float64 // Absorbed, ElectrodeHit [eV]
	Direction     r3.Vec  // Reflected
}

func Pass() Outcome {
	return Outcome{Kind: NoAction}
}

// Terminal reports whether the track stops.
func (o Outcome) Terminal() bool {
	return o.Kind == Absorbed || o.Kind == ElectrodeHit
}

// Apply folds the outcome into the carrier the way a kernel would.
func (o Outcome) Apply(c *carrier.Carrier) {
	switch o.Kind {
	case Reflected:
		c.Direction = o.Direction
		c.UpdateWaveVector()
	case Absorbed, ElectrodeHit:
		c.KineticEnergy = 0
		c.WaveVector = r3.Vec{}
		c.Killed = true
	}
}

func (o Outcome) String() string {
	switch o.Kind {
	case ValleyReassigned:
		return fmt.Sprintf("%s(%d)", o.Kind, o.Valley)
	case Absorbed, ElectrodeHit:
		return fmt.Sprintf("%s(%g eV)", o.Kind, o.EnergyDeposit)
	case Reflected:
		return fmt.Sprintf("%s(%v)", o.Kind, o.Direction)
	}
	return o.Kind.String()
}
