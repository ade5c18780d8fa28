package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/field"
)

const runFile = `
OutputDir = "out"
InputUnits = ["mm", "V", "meV"]
Energy = 5
MaxSteps = 5000

[Crystal]
Name = "Ge"
Lattice = "Ge"
HalfX = 10
HalfY = 10
HalfZ = 5

[Field]
Kind = "uniform"
Vector = [0, 0, -0.1]

[[Surfaces]]
From = "Ge"
To = "World"
AbsProb = 0.1
ElectrodeV = 2
AbsDeltaV = 0.5
MinKElectron = 1

[Runs.fast]
Carrier = "hole"
Energy = 10
NCarriers = 20

[Runs.slow]
MaxBounces = 3
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, _, err := LoadConfig(writeConfig(t, runFile))
	require.NoError(t, err)

	assert.Equal(t, "Ge", cfg.Crystal.Name)
	assert.Equal(t, "World", cfg.Crystal.World)
	assert.InDelta(t, 0.005, cfg.Crystal.HalfZ, 1e-15)
	assert.Equal(t, []string{"mm", "V", "meV"}, cfg.OutputUnits)
	assert.Len(t, cfg.Runs, 2)

	sampler, err := cfg.Sampler()
	require.NoError(t, err)
	e, ok := sampler.FieldAt(r3.Vec{})
	require.True(t, ok)
	assert.InDelta(t, -100, e.Z, 1e-9)

	table, err := cfg.SurfaceTable()
	require.NoError(t, err)
	p, ok := table.PolicyFor("Ge", "World")
	require.True(t, ok)
	assert.InDelta(t, 1000, p.MinKElectron, 1e-9)
	assert.Equal(t, 2., p.ElectrodeV)
	_, ok = table.PolicyFor("World", "Ge")
	assert.False(t, ok)
}

func TestLoadConfigWithoutExtension(t *testing.T) {
	path := writeConfig(t, runFile)
	_, _, err := LoadConfig(path[:len(path)-len(".toml")])
	assert.NoError(t, err)
}

func TestCheckAndUnifyPriority(t *testing.T) {
	cfg, meta, err := LoadConfig(writeConfig(t, runFile))
	require.NoError(t, err)

	fast := cfg.Runs["fast"]
	require.NoError(t, fast.CheckAndUnify("fast", &cfg, &meta))
	assert.Equal(t, carrier.Hole, fast.Kind())
	assert.InDelta(t, 0.01, fast.Energy, 1e-15)
	assert.Equal(t, 20, fast.NCarriers)
	assert.Equal(t, 5000, fast.MaxSteps)
	assert.Equal(t, -1, fast.MaxBounces)
	assert.True(t, fast.MakeDir)
	assert.True(t, fast.Defined("Energy"))
	assert.False(t, fast.Defined("MaxBounces"))
	assert.Equal(t, cfg.OutputUnits, fast.OutputUnits())

	slow := cfg.Runs["slow"]
	require.NoError(t, slow.CheckAndUnify("slow", &cfg, &meta))
	assert.Equal(t, carrier.Electron, slow.Kind())
	assert.InDelta(t, 0.005, slow.Energy, 1e-15)
	assert.Equal(t, 1000, slow.NCarriers)
	assert.Equal(t, 3, slow.MaxBounces)
	assert.True(t, slow.Defined("MaxBounces"))

	// unify does not touch the global section
	assert.Equal(t, 5., cfg.Energy)
}

func TestDefaultOutputDirFollowsInputName(t *testing.T) {
	path := writeConfig(t, "[Crystal]\nHalfX = 1\nHalfY = 1\nHalfZ = 1\n[Runs.a]\n")
	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "run"), cfg.OutputDir)
}

func TestLoadConfigErrors(t *testing.T) {
	_, _, err := LoadConfig(writeConfig(t, "[Crystal]\nHalfX = 1\nHalfY = 1\nHalfZ = 1\n"))
	assert.ErrorIs(t, err, ErrNoRuns)

	_, _, err = LoadConfig(writeConfig(t, "InputUnits = [\"mm\", \"cm\"]\n[Runs.a]\n"))
	assert.ErrorContains(t, err, "unit conflict")

	_, _, err = LoadConfig(writeConfig(t, "[Runs.a]\n"))
	assert.ErrorContains(t, err, "half sizes")

	_, _, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestCheckAndUnifyRejectsBadRun(t *testing.T) {
	cfg, meta, err := LoadConfig(writeConfig(t, runFile+"\n[Runs.bad]\nCarrier = \"proton\"\n"))
	require.NoError(t, err)
	bad := cfg.Runs["bad"]
	assert.Error(t, bad.CheckAndUnify("bad", &cfg, &meta))
}

func TestTabulatedSampler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "v.txt"), []byte("-5 0\n5 1000\n"), 0644))
	content := `
InputUnits = ["mm", "mV"]
[Crystal]
HalfX = 5
HalfY = 5
HalfZ = 5
[Field]
Kind = "tabulated"
Table = "v.txt"
Axis = "z"
[Runs.a]
`
	path := filepath.Join(dir, "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	sampler, err := cfg.Sampler()
	require.NoError(t, err)
	require.IsType(t, &field.Tabulated{}, sampler)

	v, ok := sampler.PotentialAt(r3.Vec{})
	require.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-12)

	cfg.Field.Kind = "dipole"
	_, err = cfg.Sampler()
	assert.Error(t, err)

	cfg.Field.Kind = "none"
	sampler, err = cfg.Sampler()
	assert.NoError(t, err)
	assert.Nil(t, sampler)
}

func TestSurfaceTableRejectsBadPolicy(t *testing.T) {
	cfg := Config{Surfaces: []SurfaceConfig{{From: "a", To: "b", AbsProb: 2}}}
	_, err := cfg.SurfaceTable()
	assert.Error(t, err)

	cfg = Config{Surfaces: []SurfaceConfig{{From: "a"}}}
	_, err = cfg.SurfaceTable()
	assert.Error(t, err)
}

func TestUnits(t *testing.T) {
	assert.InDelta(t, 0.01, SI(1, []UnitElement{{Class: Length, Power: 1}}, []string{"cm"}, true), 1e-15)
	assert.InDelta(t, 100, SI(1, []UnitElement{{Class: Length, Power: 1}}, []string{"cm"}, false), 1e-12)
	assert.InDelta(t, 1e5, SI(1, []UnitElement{{Class: Potential, Power: 1}, {Class: Length, Power: -1}}, []string{"kV", "cm"}, true), 1e-6)
	assert.Equal(t, 1e-3, Scale(Energy, []string{"meV"}))

	extended, conflicts := checkUnits([]string{"cm"})
	assert.Empty(t, conflicts)
	assert.Equal(t, []string{"cm", "V", "eV"}, extended)

	_, conflicts = checkUnits([]string{"cm", "mm", "furlong"})
	assert.Equal(t, []string{"mm", "furlong"}, conflicts)
}

func TestSettingsFromEnvironment(t *testing.T) {
	t.Setenv("CMPDRIFT_BOUNCES", "7")
	t.Setenv("CMPDRIFT_VERBOSE", "2")
	t.Setenv("CMPDRIFT_MAKECHARGES", "0.25")
	t.Setenv("CMPDRIFT_THREADS", "3")
	t.Setenv("CMPDRIFT_SEED", "42")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, Settings{Verbose: 2, Bounces: 7, MakeCharges: 0.25, Seed: 42, Threads: 3}, s)

	var buf bytes.Buffer
	s.Print(&buf)
	assert.Contains(t, buf.String(), "bounces:      7")
}

func TestSettingsDefaults(t *testing.T) {
	for _, key := range []string{"BOUNCES", "VERBOSE", "MAKECHARGES", "SEED", "THREADS"} {
		t.Setenv("CMPDRIFT_"+key, "")
		os.Unsetenv("CMPDRIFT_" + key)
	}
	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, -1, s.Bounces)
	assert.Equal(t, 1., s.MakeCharges)
	assert.Positive(t, s.Threads)

	var buf bytes.Buffer
	s.Print(&buf)
	assert.Contains(t, buf.String(), "unlimited")
}

func TestSettingsRejectBadFraction(t *testing.T) {
	t.Setenv("CMPDRIFT_MAKECHARGES", "2")
	_, err := LoadSettings()
	assert.Error(t, err)
}
