package boundary

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/field"
	"github.com/wildstyl3r/cmpdrift/internal/process"
	"github.com/wildstyl3r/cmpdrift/internal/surface"
)

type fixedRand []float64

func (f *fixedRand) Float64() float64 {
	v := (*f)[0]
	*f = (*f)[1:]
	return v
}

type fakeGeometry struct {
	lattices map[string]string
	fields   map[string]field.Sampler
	normal   r3.Vec
	noNormal bool
}

func (g *fakeGeometry) Lattice(volume string) (string, bool) {
	l, ok := g.lattices[volume]
	return l, ok
}

func (g *fakeGeometry) Field(volume string) (field.Sampler, bool) {
	f, ok := g.fields[volume]
	return f, ok
}

func (g *fakeGeometry) ExitNormal(r3.Vec) (r3.Vec, bool) {
	return g.normal, !g.noNormal
}

func (g *fakeGeometry) ToLocal(_ string, pos r3.Vec) r3.Vec {
	return pos
}

var outward = r3.Vec{X: 1 / math.Sqrt2, Z: 1 / math.Sqrt2}

func newGeometry() *fakeGeometry {
	return &fakeGeometry{
		lattices: map[string]string{"crystal": "Ge"},
		fields:   map[string]field.Sampler{},
		normal:   r3.Vec{Z: 1},
	}
}

func newPolicy() surface.Policy {
	return surface.Policy{MinKElectron: 1e30, MinKHole: 1e30}
}

func newTable(t *testing.T, p surface.Policy) surface.Table {
	table := surface.Table{}
	require.NoError(t, table.Add("crystal", "world", p))
	return table
}

func newStep(c *carrier.Carrier) *process.Step {
	return &process.Step{
		Track:           c,
		Length:          1e-4,
		BoundaryLimited: true,
		PreVolume:       "crystal",
		PostVolume:      "world",
		PostPosition:    r3.Vec{Z: 0.01},
		PostVelocity:    1e5,
	}
}

func newElectron(direction r3.Vec) *carrier.Carrier {
	return carrier.New(1, carrier.Electron, r3.Vec{Z: 0.01}, direction, 0.02, "Ge")
}

func newEngine(t *testing.T, geom process.Geometry, p surface.Policy, rnd process.Rand) *Engine {
	e := New(carrier.Electron, geom, newTable(t, p), rnd, zerolog.Nop(), DefaultOptions())
	return e
}

func TestForcedAndUnlimited(t *testing.T) {
	e := newEngine(t, newGeometry(), newPolicy(), &fixedRand{})
	mfp, cond := e.MeanFreePath(newStep(newElectron(outward)))
	assert.True(t, math.IsInf(mfp, 1))
	assert.Equal(t, process.Forced, cond)
	assert.True(t, e.Applicable(carrier.Electron))
	assert.False(t, e.Applicable(carrier.Hole))
	assert.Equal(t, "ElectronBoundary", e.Name())
}

func TestSpecularReflection(t *testing.T) {
	e := newEngine(t, newGeometry(), newPolicy(), &fixedRand{0.5})
	c := newElectron(outward)
	require.NoError(t, e.LoadTrack(c))

	out := e.DoInteraction(newStep(c))
	require.Equal(t, process.Reflected, out.Kind)
	assert.InDelta(t, 1/math.Sqrt2, out.Direction.X, 1e-12)
	assert.InDelta(t, 0, out.Direction.Y, 1e-12)
	assert.InDelta(t, -1/math.Sqrt2, out.Direction.Z, 1e-12)
	assert.Equal(t, 1, e.Bounces())
}

func TestInwardDirectionIsNotReflected(t *testing.T) {
	e := newEngine(t, newGeometry(), newPolicy(), &fixedRand{0.5})
	c := newElectron(r3.Vec{X: 1, Z: -1})
	require.NoError(t, e.LoadTrack(c))
	before := *c

	out := e.DoInteraction(newStep(c))
	assert.Equal(t, process.NoAction, out.Kind)
	out.Apply(c)
	assert.Equal(t, before, *c)
	assert.Zero(t, e.Bounces())
}

func TestAbsorptionProbability(t *testing.T) {
	p := newPolicy()
	p.AbsProb = 1
	e := newEngine(t, newGeometry(), p, &fixedRand{0.999})
	c := newElectron(outward)
	require.NoError(t, e.LoadTrack(c))

	out := e.DoInteraction(newStep(c))
	assert.Equal(t, process.Absorbed, out.Kind)
	assert.Equal(t, c.KineticEnergy, out.EnergyDeposit)
	assert.True(t, out.Terminal())

	p.AbsProb = 0
	e = newEngine(t, newGeometry(), p, &fixedRand{0.3})
	require.NoError(t, e.LoadTrack(c))
	assert.Equal(t, process.Reflected, e.DoInteraction(newStep(c)).Kind)
}

func TestAbsorptionRollComesFirst(t *testing.T) {
	p := newPolicy()
	p.AbsProb = 1
	geom := newGeometry()
	geom.noNormal = true
	e := newEngine(t, geom, p, &fixedRand{0.2})
	c := newElectron(outward)
	require.NoError(t, e.LoadTrack(c))

	assert.Equal(t, process.Absorbed, e.DoInteraction(newStep(c)).Kind)
}

func TestWaveVectorThreshold(t *testing.T) {
	c := newElectron(outward)
	kn := r3.Dot(c.WaveVector, r3.Vec{Z: 1})
	require.Positive(t, kn)

	p := newPolicy()
	p.MinKElectron = kn
	e := newEngine(t, newGeometry(), p, &fixedRand{0.5})
	require.NoError(t, e.LoadTrack(c))
	assert.Equal(t, process.Reflected, e.DoInteraction(newStep(c)).Kind, "equal to threshold")

	p.MinKElectron = kn * 0.99
	e = newEngine(t, newGeometry(), p, &fixedRand{0.5})
	require.NoError(t, e.LoadTrack(c))
	out := e.DoInteraction(newStep(c))
	assert.Equal(t, process.Absorbed, out.Kind, "above threshold")
	assert.Equal(t, c.KineticEnergy, out.EnergyDeposit)
}

func TestElectrodeHit(t *testing.T) {
	geom := newGeometry()
	// V(z = 0.01) = 1 V
	geom.fields["crystal"] = field.Uniform{E: r3.Vec{Z: -100}}
	p := newPolicy()
	p.ElectrodeV = 1
	p.AbsDeltaV = 0.01

	e := newEngine(t, geom, p, &fixedRand{0.5})
	c := newElectron(outward)
	require.NoError(t, e.LoadTrack(c))
	out := e.DoInteraction(newStep(c))
	assert.Equal(t, process.ElectrodeHit, out.Kind)
	assert.Equal(t, c.KineticEnergy, out.EnergyDeposit)

	p.ElectrodeV = 1.5
	e = newEngine(t, geom, p, &fixedRand{0.5})
	require.NoError(t, e.LoadTrack(c))
	assert.Equal(t, process.Reflected, e.DoInteraction(newStep(c)).Kind, "outside window")
}

func TestElectrodeNeedsZFacingSurface(t *testing.T) {
	geom := newGeometry()
	geom.fields["crystal"] = field.Uniform{V0: 1}
	geom.normal = r3.Vec{X: 1}
	p := newPolicy()
	p.ElectrodeV = 1
	p.AbsDeltaV = 0.5

	e := newEngine(t, geom, p, &fixedRand{0.5})
	c := newElectron(outward)
	require.NoError(t, e.LoadTrack(c))
	out := e.DoInteraction(newStep(c))
	require.Equal(t, process.Reflected, out.Kind)
	assert.InDelta(t, -1/math.Sqrt2, out.Direction.X, 1e-12)
}

func TestFieldWithoutPotentialSkipsElectrode(t *testing.T) {
	geom := newGeometry()
	geom.fields["crystal"] = field.FieldOnly{Sampler: field.Uniform{V0: 1}}
	p := newPolicy()
	p.ElectrodeV = 1
	p.AbsDeltaV = 0.5

	e := newEngine(t, geom, p, &fixedRand{0.5})
	c := newElectron(outward)
	require.NoError(t, e.LoadTrack(c))
	assert.Equal(t, process.Reflected, e.DoInteraction(newStep(c)).Kind)
}

func TestPassThroughCases(t *testing.T) {
	tests := []struct {
		name   string
		geom   func(*fakeGeometry)
		step   func(*process.Step)
		policy bool
	}{
		{name: "not boundary limited", step: func(s *process.Step) { s.BoundaryLimited = false }, policy: true},
		{name: "degenerate step", step: func(s *process.Step) { s.Length = DefaultOptions().Tolerance / 2 }, policy: true},
		{name: "zero length", step: func(s *process.Step) { s.Length = 0 }, policy: true},
		{name: "same volume", step: func(s *process.Step) { s.PostVolume = s.PreVolume }, policy: true},
		{name: "lattice mismatch", geom: func(g *fakeGeometry) { g.lattices["crystal"] = "Si" }, policy: true},
		{name: "no lattice", geom: func(g *fakeGeometry) { delete(g.lattices, "crystal") }, policy: true},
		{name: "no policy", policy: false},
		{name: "no normal", geom: func(g *fakeGeometry) { g.noNormal = true }, policy: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geom := newGeometry()
			if tt.geom != nil {
				tt.geom(geom)
			}
			store := surface.Table{}
			if tt.policy {
				p := newPolicy()
				p.AbsProb = 0.5
				require.NoError(t, store.Add("crystal", "world", p))
			}
			// only the no-normal case gets past the absorption roll
			rnd := &fixedRand{0.9}
			e := New(carrier.Electron, geom, store, rnd, zerolog.Nop(), DefaultOptions())
			c := newElectron(outward)
			require.NoError(t, e.LoadTrack(c))
			before := *c

			step := newStep(c)
			if tt.step != nil {
				tt.step(step)
			}
			out := e.DoInteraction(step)
			assert.Equal(t, process.NoAction, out.Kind)
			assert.Equal(t, before, *c)
		})
	}
}

func TestDegenerateStepDrawsNothing(t *testing.T) {
	p := newPolicy()
	p.AbsProb = 1
	rnd := &fixedRand{}
	e := newEngine(t, newGeometry(), p, rnd)
	c := newElectron(outward)
	require.NoError(t, e.LoadTrack(c))

	step := newStep(c)
	step.Length = 1e-13
	assert.NotPanics(t, func() {
		assert.Equal(t, process.NoAction, e.DoInteraction(step).Kind)
	})
}

func TestMissingCollaborators(t *testing.T) {
	e := New(carrier.Electron, nil, nil, &fixedRand{}, zerolog.Nop(), DefaultOptions())
	c := newElectron(outward)
	require.NoError(t, e.LoadTrack(c))
	assert.NotPanics(t, func() {
		assert.Equal(t, process.NoAction, e.DoInteraction(newStep(c)).Kind)
	})
}

func TestWrongCarrierKind(t *testing.T) {
	p := newPolicy()
	p.AbsProb = 1
	e := newEngine(t, newGeometry(), p, &fixedRand{})
	h := carrier.New(2, carrier.Hole, r3.Vec{Z: 0.01}, outward, 0.02, "Ge")
	before := *h

	err := e.LoadTrack(h)
	assert.ErrorIs(t, err, ErrWrongCarrier)

	out := e.DoInteraction(newStep(h))
	assert.Equal(t, process.NoAction, out.Kind)
	out.Apply(h)
	assert.Equal(t, before, *h)
}

func TestBounceLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxBounces = 1
	e := New(carrier.Electron, newGeometry(), newTable(t, newPolicy()), &fixedRand{0.5, 0.5, 0.5}, zerolog.Nop(), opts)

	c := newElectron(outward)
	require.NoError(t, e.LoadTrack(c))
	assert.Equal(t, process.Reflected, e.DoInteraction(newStep(c)).Kind)
	assert.Equal(t, process.Absorbed, e.DoInteraction(newStep(c)).Kind)

	next := carrier.New(5, carrier.Electron, r3.Vec{Z: 0.01}, outward, 0.02, "Ge")
	require.NoError(t, e.LoadTrack(next))
	assert.Zero(t, e.Bounces())
	assert.Equal(t, process.Reflected, e.DoInteraction(newStep(next)).Kind)
}

func TestHoleEngineUsesHoleThreshold(t *testing.T) {
	h := carrier.New(3, carrier.Hole, r3.Vec{Z: 0.01}, outward, 0.02, "Ge")
	p := newPolicy()
	p.MinKHole = 0
	e := New(carrier.Hole, newGeometry(), newTable(t, p), &fixedRand{0.5}, zerolog.Nop(), DefaultOptions())
	require.NoError(t, e.LoadTrack(h))
	assert.Equal(t, process.Absorbed, e.DoInteraction(newStep(h)).Kind)
	assert.Equal(t, "HoleBoundary", e.Name())
}
