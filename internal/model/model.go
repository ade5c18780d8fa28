// Package model drives carriers through a box crystal with the drift
// processes and collects what happened to them. It stands in for the
// transport kernel: flights are straight, and the shorter of the
// inter-valley length and the distance to the crystal face ends a step.
package model

import (
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/boundary"
	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/config"
	"github.com/wildstyl3r/cmpdrift/internal/constants"
	"github.com/wildstyl3r/cmpdrift/internal/field"
	"github.com/wildstyl3r/cmpdrift/internal/geometry"
	"github.com/wildstyl3r/cmpdrift/internal/hits"
	"github.com/wildstyl3r/cmpdrift/internal/intervalley"
	"github.com/wildstyl3r/cmpdrift/internal/process"
	"github.com/wildstyl3r/cmpdrift/internal/surface"
	"github.com/wildstyl3r/cmpdrift/internal/utils"
	"github.com/wildstyl3r/cmpdrift/internal/valley"
)

type Model struct {
	Name       string
	Parameters config.RunParameters
	Settings   config.Settings

	Box      *geometry.Box
	Surfaces surface.Store

	log zerolog.Logger

	Outcomes      map[process.OutcomeKind]int
	Escaped       int // left the crystal without a terminal outcome
	Stalled       int // ran out of steps
	Thinned       int // not created, see carrier.ChooseWeight
	ValleyEntries [constants.NumValleys]int
	Deposits      []float64 // weighted, terminal tracks only [eV]
	Hits          []hits.Hit
}

func NewModel(name string, parameters config.RunParameters, settings config.Settings, box *geometry.Box, surfaces surface.Store, log zerolog.Logger) *Model {
	m := &Model{
		Name:       name,
		Parameters: parameters,
		Settings:   settings,
		Box:        box,
		Surfaces:   surfaces,
		log:        log.With().Str("run", name).Logger(),
		Outcomes:   map[process.OutcomeKind]int{},
	}
	if !parameters.Defined("MaxBounces") {
		m.Parameters.MaxBounces = settings.Bounces
	}
	return m
}

// trackEvent is what a worker reports about one finished track.
type trackEvent struct {
	hit     hits.Hit
	escaped bool
	stalled bool
	valleys []int
}

// worker owns the per-track state of the processes it steps.
type worker struct {
	m       *Model
	rnd     *rand.Rand
	valleys *carrier.ValleyTable
	iv      *intervalley.Scattering
	edge    *boundary.Engine
}

func (m *Model) newWorker(index int) *worker {
	rnd := rand.New(rand.NewPCG(m.Settings.Seed, uint64(index)+1))
	valleys := carrier.NewValleyTable()
	var sampler field.Sampler
	if s, ok := m.Box.Field(m.Box.Crystal); ok {
		sampler = s
	}
	opts := boundary.DefaultOptions()
	opts.MaxBounces = m.Parameters.MaxBounces
	return &worker{
		m:       m,
		rnd:     rnd,
		valleys: valleys,
		iv:      intervalley.New(sampler, valleys, rnd, m.log),
		edge:    boundary.New(m.Parameters.Kind(), m.Box, m.Surfaces, rnd, m.log, opts),
	}
}

func (w *worker) track(c *carrier.Carrier) trackEvent {
	var ev trackEvent
	electron := c.Kind == carrier.Electron
	if electron {
		w.valleys.SetValley(c.TrackID, valley.Draw(w.rnd.Float64()))
		defer w.valleys.Forget(c.TrackID)
		w.iv.StartTracking()
	}
	if err := w.edge.LoadTrack(c); err != nil {
		w.m.log.Error().Err(err).Msg("track skipped")
		ev.stalled = true
		return ev
	}

	for steps := 1; steps <= w.m.Parameters.MaxSteps; steps++ {
		step := &process.Step{
			Track:        c,
			PreVolume:    w.m.Box.Crystal,
			PostVolume:   w.m.Box.Crystal,
			PostVelocity: c.Velocity(),
		}
		toExit := w.m.Box.DistanceToExit(c.Position, c.Direction)
		toScatter, mfp := process.Unlimited, process.Unlimited
		if electron {
			mfp, _ = w.iv.MeanFreePath(step)
			toScatter = w.iv.PhysicalInteractionLength(mfp, w.rnd)
		}

		if toScatter < toExit {
			c.Move(toScatter)
			step.Length = toScatter
			step.PostPosition = c.Position
			out := w.iv.DoInteraction(step)
			ev.valleys = append(ev.valleys, out.Valley)
			continue
		}

		c.Move(toExit)
		if electron {
			w.iv.Advance(toExit, mfp)
		}
		step.Length = toExit
		step.BoundaryLimited = true
		step.PostVolume = w.m.Box.World
		step.PostPosition = c.Position

		out := w.edge.DoInteraction(step)
		out.Apply(c)
		switch {
		case out.Terminal():
			ev.hit = w.hit(c, out, steps)
			return ev
		case out.Kind == process.Reflected:
			continue
		case step.Length <= w.edge.Tolerance()/2:
			// re-entry on the face just hit, the next step moves away
			continue
		}
		ev.escaped = true
		ev.hit = w.hit(c, out, steps)
		return ev
	}
	ev.stalled = true
	ev.hit = w.hit(c, process.Pass(), w.m.Parameters.MaxSteps)
	return ev
}

func (w *worker) hit(c *carrier.Carrier, out process.Outcome, steps int) hits.Hit {
	return hits.New(c, out, w.m.Box.ToLocal(w.m.Box.Crystal, c.Position), steps, w.valleys.Valley(c.TrackID))
}

func (m *Model) newCarriers(rnd *rand.Rand) []*carrier.Carrier {
	carriers := make([]*carrier.Carrier, 0, m.Parameters.NCarriers)
	for i := range m.Parameters.NCarriers {
		weight := carrier.ChooseWeight(m.Settings.MakeCharges, rnd.Float64())
		if weight == 0 {
			m.Thinned++
			continue
		}
		position := utils.UniformInBox(rnd, m.Box.Half)
		c := carrier.New(carrier.TrackID(i+1), m.Parameters.Kind(),
			r3.Add(m.Box.Center, position),
			utils.IsotropicDirection(rnd),
			m.Parameters.Energy,
			m.Box.LatticeName)
		c.Weight = weight
		carriers = append(carriers, c)
	}
	return carriers
}

func (m *Model) Run() {
	var computeWg, stateWg sync.WaitGroup

	events := make(chan trackEvent, 1000)
	stateWg.Add(1)
	go func() {
		for ev := range events {
			for _, v := range ev.valleys {
				m.ValleyEntries[v-1]++
			}
			switch {
			case ev.stalled:
				m.Stalled++
			case ev.escaped:
				m.Escaped++
			default:
				m.Outcomes[ev.hit.Outcome]++
				m.Deposits = append(m.Deposits, ev.hit.EnergyDeposit*ev.hit.Weight)
			}
			if ev.hit.TrackID != 0 {
				m.Hits = append(m.Hits, ev.hit)
			}
		}
		stateWg.Done()
	}()

	carriers := m.newCarriers(rand.New(rand.NewPCG(m.Settings.Seed, 0)))
	computeflow := make(chan *carrier.Carrier, len(carriers))
	for _, c := range carriers {
		computeflow <- c
	}
	close(computeflow)

	m.log.Info().
		Int("carriers", len(carriers)).
		Int("thinned", m.Thinned).
		Int("threads", m.Settings.Threads).
		Msg("run started")

	for i := range max(m.Settings.Threads, 1) {
		computeWg.Add(1)
		go func() {
			defer computeWg.Done()
			w := m.newWorker(i)
			for c := range computeflow {
				events <- w.track(c)
			}
		}()
	}
	computeWg.Wait()
	close(events)
	stateWg.Wait()

	mean, variance := utils.MeanAndVariance(m.Deposits, true)
	m.log.Info().
		Int("terminal", len(m.Deposits)).
		Int("escaped", m.Escaped).
		Int("stalled", m.Stalled).
		Float64("deposit_mean", mean).
		Float64("deposit_variance", variance).
		Msg("run finished")
}
