// Package hits records how every simulated carrier ended.
package hits

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/process"
)

// Hit is the final record of one track.
type Hit struct {
	TrackID       carrier.TrackID
	Kind          carrier.Kind
	Outcome       process.OutcomeKind
	StartEnergy   float64 // [eV]
	EnergyDeposit float64 // [eV]
	Weight        float64
	StartPosition r3.Vec // lab frame [m]
	FinalPosition r3.Vec // crystal frame [m]
	Steps         int
	Valley        int // 0 for holes
}

// Sink stores the hits of a run.
type Sink interface {
	Write(run string, hits []Hit) error
	Close() error
}

// New builds a hit from a finished carrier.
func New(c *carrier.Carrier, outcome process.Outcome, local r3.Vec, steps, valley int) Hit {
	return Hit{
		TrackID:       c.TrackID,
		Kind:          c.Kind,
		Outcome:       outcome.Kind,
		StartEnergy:   c.StartEnergy,
		EnergyDeposit: outcome.EnergyDeposit,
		Weight:        c.Weight,
		StartPosition: c.StartPosition,
		FinalPosition: local,
		Steps:         steps,
		Valley:        valley,
	}
}
