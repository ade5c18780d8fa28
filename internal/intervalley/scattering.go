// Package intervalley implements field driven inter-valley scattering of
// conduction electrons.
package intervalley

import (
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/constants"
	"github.com/wildstyl3r/cmpdrift/internal/field"
	"github.com/wildstyl3r/cmpdrift/internal/logging"
	"github.com/wildstyl3r/cmpdrift/internal/process"
	"github.com/wildstyl3r/cmpdrift/internal/valley"
)

const Name = "InterValleyScattering"

// valleyScale rescales a valley-frame direction by the inverse mass ratios.
var valleyScale = r3.Vec{
	X: 1 / constants.ValleyMassRatioT,
	Y: 1 / constants.ValleyMassRatioT,
	Z: 1 / constants.ValleyMassRatioL,
}

// Scattering moves an electron to a random valley after a field dependent
// free path. One instance serves one track at a time.
type Scattering struct {
	process.Discrete

	field   field.Sampler // nil when the kernel has no field
	valleys *carrier.ValleyTable
	rnd     process.Rand
	log     zerolog.Logger
}

func New(f field.Sampler, valleys *carrier.ValleyTable, rnd process.Rand, log zerolog.Logger) *Scattering {
	return &Scattering{
		field:   f,
		valleys: valleys,
		rnd:     rnd,
		log:     logging.ForProcess(log, Name),
	}
}

func (s *Scattering) Name() string {
	return Name
}

func (s *Scattering) Applicable(kind carrier.Kind) bool {
	return kind == carrier.Electron
}

// MeanFreePath follows the Edelweiss rate: v C (E0^2 + E^2)^(p/2), with E the
// magnitude of the field direction seen in the valley frame after the mass
// rescaling. Without a field there is no scattering.
func (s *Scattering) MeanFreePath(step *process.Step) (float64, process.Condition) {
	if s.field == nil {
		return process.Unlimited, process.NotForced
	}
	fieldVector, ok := s.field.FieldAt(step.Track.Position)
	if !ok {
		return process.Unlimited, process.NotForced
	}

	transform := valley.For(s.valleys.Valley(step.Track.TrackID))
	eHV := 0.
	if r3.Norm(fieldVector) > 0 {
		dir := r3.Unit(transform.ToValley(fieldVector))
		eHV = r3.Norm(r3.Vec{
			X: dir.X * valleyScale.X,
			Y: dir.Y * valleyScale.Y,
			Z: dir.Z * valleyScale.Z,
		})
	}

	e0 := constants.IVReferenceField
	mfp := step.PostVelocity * constants.IVVelocityToLength * constants.IVRateScale *
		math.Pow(e0*e0+eHV*eHV, constants.IVRateExponent/2.)

	s.log.Trace().
		Int("track", int(step.Track.TrackID)).
		Float64("E_hv", eHV).
		Float64("mfp", mfp).
		Msg("mean free path")
	return mfp, process.NotForced
}

// DoInteraction puts the track into a uniformly chosen valley, possibly the
// same one. Momentum and energy are untouched.
func (s *Scattering) DoInteraction(step *process.Step) process.Outcome {
	next := valley.Draw(s.rnd.Float64())
	s.valleys.SetValley(step.Track.TrackID, next)
	s.Reset()

	s.log.Debug().
		Int("track", int(step.Track.TrackID)).
		Int("valley", next).
		Msg("valley reassigned")
	return process.Outcome{Kind: process.ValleyReassigned, Valley: next}
}

// PostStepLength is the distance this process allows before firing.
func (s *Scattering) PostStepLength(step *process.Step) float64 {
	mfp, _ := s.MeanFreePath(step)
	return s.PhysicalInteractionLength(mfp, s.rnd)
}

var _ process.Process = (*Scattering)(nil)
