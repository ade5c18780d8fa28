// Package boundary decides what happens to a charge carrier when its step
// ends on the border between two volumes.
package boundary

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/constants"
	"github.com/wildstyl3r/cmpdrift/internal/logging"
	"github.com/wildstyl3r/cmpdrift/internal/process"
	"github.com/wildstyl3r/cmpdrift/internal/surface"
)

var ErrWrongCarrier = errors.New("carrier kind does not match boundary engine")

type Options struct {
	// MaxBounces turns the reflection after that many into an absorption;
	// negative means no limit.
	MaxBounces int
	Tolerance  float64 // [m]
}

func DefaultOptions() Options {
	return Options{MaxBounces: -1, Tolerance: constants.SurfaceTolerance}
}

// Engine is the boundary process for one carrier kind. It keeps the state
// of the track loaded last and serves one track at a time.
type Engine struct {
	kind  carrier.Kind
	geom  process.Geometry
	store surface.Store
	rnd   process.Rand
	log   zerolog.Logger
	opts  Options

	loaded  bool
	track   carrier.TrackID
	lattice string
	bounces int
}

func New(kind carrier.Kind, geom process.Geometry, store surface.Store, rnd process.Rand, log zerolog.Logger, opts Options) *Engine {
	return &Engine{
		kind:  kind,
		geom:  geom,
		store: store,
		rnd:   rnd,
		log:   logging.ForProcess(log, Name(kind)),
		opts:  opts,
	}
}

func Name(kind carrier.Kind) string {
	switch kind {
	case carrier.Electron:
		return "ElectronBoundary"
	case carrier.Hole:
		return "HoleBoundary"
	}
	return "Boundary"
}

func (e *Engine) Name() string {
	return Name(e.kind)
}

func (e *Engine) Kind() carrier.Kind {
	return e.kind
}

func (e *Engine) Applicable(kind carrier.Kind) bool {
	return kind == e.kind
}

// MeanFreePath never limits the step, but the engine wants to see every one.
func (e *Engine) MeanFreePath(*process.Step) (float64, process.Condition) {
	return process.Unlimited, process.Forced
}

// LoadTrack must be called before the first step of a track and whenever
// the kernel switches tracks.
func (e *Engine) LoadTrack(c *carrier.Carrier) error {
	if c.Kind != e.kind {
		e.log.Error().
			Int("track", int(c.TrackID)).
			Stringer("kind", c.Kind).
			Msg("rejecting carrier of the wrong kind")
		return fmt.Errorf("track %d is %s, engine is %s: %w", c.TrackID, c.Kind, e.kind, ErrWrongCarrier)
	}
	if !e.loaded || e.track != c.TrackID {
		e.bounces = 0
	}
	e.loaded = true
	e.track = c.TrackID
	e.lattice = c.Lattice
	return nil
}

func (e *Engine) Tolerance() float64 {
	return e.opts.Tolerance
}

// Bounces is the number of reflections of the loaded track.
func (e *Engine) Bounces() int {
	return e.bounces
}

func (e *Engine) trackLattice(c *carrier.Carrier) string {
	if e.loaded && e.track == c.TrackID {
		return e.lattice
	}
	return c.Lattice
}

func (e *Engine) DoInteraction(step *process.Step) process.Outcome {
	c := step.Track
	if c == nil {
		return process.Pass()
	}
	if c.Kind != e.kind {
		e.log.Error().
			Int("track", int(c.TrackID)).
			Stringer("kind", c.Kind).
			Msg("boundary called with carrier of the wrong kind")
		return process.Pass()
	}
	if !step.BoundaryLimited || step.Length <= e.opts.Tolerance/2 {
		return process.Pass()
	}

	log := e.log.With().Int("track", int(c.TrackID)).
		Str("pre", step.PreVolume).
		Str("post", step.PostVolume).
		Logger()

	if step.PreVolume == step.PostVolume {
		log.Error().Msg("boundary step with identical volumes")
		return process.Pass()
	}
	if e.geom == nil || e.store == nil {
		log.Debug().Msg("no geometry or surface store")
		return process.Pass()
	}

	if lattice, ok := e.geom.Lattice(step.PreVolume); !ok || lattice != e.trackLattice(c) {
		log.Debug().Msg("inbound after reflection")
		return process.Pass()
	}

	policy, ok := e.store.PolicyFor(step.PreVolume, step.PostVolume)
	if !ok {
		log.Debug().Msg("no surface policy")
		return process.Pass()
	}

	if e.rnd.Float64() <= policy.AbsProb {
		log.Debug().Msg("absorbed by probability")
		return e.absorb(c)
	}

	normal, ok := e.geom.ExitNormal(step.PostPosition)
	if !ok {
		log.Error().Msg("could not resolve surface normal")
		return process.Pass()
	}
	log.Trace().Interface("normal", normal).Msg("exit normal")

	if kn := r3.Dot(c.WaveVector, normal); kn > policy.MinK(c.Kind) {
		log.Debug().Float64("k.n", kn).Msg("absorbed above wave vector threshold")
		return e.absorb(c)
	}

	if e.atElectrode(step, policy, normal, log) {
		log.Debug().Msg("collected at electrode")
		return process.Outcome{Kind: process.ElectrodeHit, EnergyDeposit: c.KineticEnergy}
	}

	dn := r3.Dot(c.Direction, normal)
	if dn <= 0 {
		log.Error().Float64("d.n", dn).Msg("direction points inward, not reflecting")
		return process.Pass()
	}
	if e.opts.MaxBounces >= 0 && e.bounces >= e.opts.MaxBounces {
		log.Debug().Int("bounces", e.bounces).Msg("reflection limit reached")
		return e.absorb(c)
	}
	e.bounces++
	return process.Outcome{
		Kind:      process.Reflected,
		Direction: r3.Unit(r3.Sub(c.Direction, r3.Scale(2*dn, normal))),
	}
}

func (e *Engine) absorb(c *carrier.Carrier) process.Outcome {
	return process.Outcome{Kind: process.Absorbed, EnergyDeposit: c.KineticEnergy}
}

func (e *Engine) atElectrode(step *process.Step, policy surface.Policy, normal r3.Vec, log zerolog.Logger) bool {
	f, ok := e.geom.Field(step.PreVolume)
	if !ok || f == nil {
		log.Debug().Msg("no field on volume, skipping electrode check")
		return false
	}
	v, ok := f.PotentialAt(e.geom.ToLocal(step.PreVolume, step.PostPosition))
	if !ok {
		return false
	}
	return math.Abs(normal.Z) > constants.ElectrodeNormalMin &&
		math.Abs(v-policy.ElectrodeV) <= policy.AbsDeltaV
}

var _ process.Process = (*Engine)(nil)
