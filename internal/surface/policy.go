// Package surface describes how charge carriers interact with the border
// between two volumes.
package surface

import (
	"fmt"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
)

// Policy is the configuration of one border surface.
type Policy struct {
	AbsProb      float64 // chance to be absorbed on any crossing
	AbsDeltaV    float64 // [V] electrode potential window
	MinKElectron float64 // [1/m] k.n threshold for electrons
	MinKHole     float64 // [1/m] k.n threshold for holes
	ElectrodeV   float64 // [V]
}

// MinK returns the wave-vector threshold of the carrier kind.
func (p Policy) MinK(kind carrier.Kind) float64 {
	if kind == carrier.Electron {
		return p.MinKElectron
	}
	return p.MinKHole
}

func (p Policy) Validate() error {
	if p.AbsProb < 0 || p.AbsProb > 1 {
		return fmt.Errorf("absorption probability %g outside [0,1]", p.AbsProb)
	}
	if p.AbsDeltaV < 0 {
		return fmt.Errorf("negative electrode window %g", p.AbsDeltaV)
	}
	return nil
}

// Store resolves the policy of the border crossed going from one volume
// into another. The pair is ordered.
type Store interface {
	PolicyFor(from, to string) (Policy, bool)
}

type Pair struct {
	From, To string
}

// Table is a Store backed by a map; it is read-only once built.
type Table map[Pair]Policy

func (t Table) PolicyFor(from, to string) (Policy, bool) {
	p, ok := t[Pair{From: from, To: to}]
	return p, ok
}

func (t Table) Add(from, to string, p Policy) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("surface %s -> %s: %w", from, to, err)
	}
	t[Pair{From: from, To: to}] = p
	return nil
}
