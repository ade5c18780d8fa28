package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"

	"github.com/BurntSushi/toml"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/field"
	"github.com/wildstyl3r/cmpdrift/internal/surface"
	"github.com/wildstyl3r/cmpdrift/internal/utils"
)

var ErrNoRuns = errors.New("no runs provided")

type CrystalConfig struct {
	Name    string
	World   string
	Lattice string
	HalfX   float64 // [length]
	HalfY   float64 // [length]
	HalfZ   float64 // [length]
}

type FieldConfig struct {
	Kind       string     // none, uniform or tabulated
	Vector     [3]float64 // [potential / length]
	Potential0 float64    // [potential]
	Table      string     // two columns: coordinate [length], potential [potential]
	Axis       string
}

type SurfaceConfig struct {
	From         string
	To           string
	AbsProb      float64
	AbsDeltaV    float64 // [potential]
	MinKElectron float64 // [1 / length]
	MinKHole     float64 // [1 / length]
	ElectrodeV   float64 // [potential]
}

type Config struct {
	OutputDir string
	Crystal   CrystalConfig
	Field     FieldConfig
	Surfaces  []SurfaceConfig
	Runs      map[string]RunParameters
	RunParameters

	InputUnits  []string
	OutputUnits []string

	dir string
}

func LoadConfig(configFileName string) (Config, toml.MetaData, error) {
	var config Config
	if filepath.Ext(configFileName) == "" {
		configFileName += ".toml"
	}
	meta, err := toml.DecodeFile(configFileName, &config)
	if err != nil {
		return config, meta, err
	}
	config.dir = filepath.Dir(configFileName)
	if config.OutputDir == "" {
		config.OutputDir = filepath.Join(config.dir, utils.GetFilename(configFileName))
	}

	var unitsConflict []string
	config.InputUnits, unitsConflict = checkUnits(config.InputUnits)
	if len(unitsConflict) > 0 {
		return config, meta, fmt.Errorf("found input unit conflict: %v", unitsConflict)
	}
	if len(config.OutputUnits) == 0 {
		config.OutputUnits = config.InputUnits
	}
	config.OutputUnits, unitsConflict = checkUnits(config.OutputUnits)
	if len(unitsConflict) > 0 {
		return config, meta, fmt.Errorf("found output unit conflict: %v", unitsConflict)
	}

	if len(config.Runs) == 0 {
		return config, meta, ErrNoRuns
	}

	config.fillCrystal()
	config.toSI()
	if config.Crystal.HalfX <= 0 || config.Crystal.HalfY <= 0 || config.Crystal.HalfZ <= 0 {
		return config, meta, fmt.Errorf("crystal %s: half sizes must be positive", config.Crystal.Name)
	}
	return config, meta, nil
}

func (c *Config) fillCrystal() {
	if c.Crystal.Name == "" {
		c.Crystal.Name = "Crystal"
	}
	if c.Crystal.World == "" {
		c.Crystal.World = "World"
	}
	if c.Crystal.Lattice == "" {
		c.Crystal.Lattice = "Ge"
	}
}

func (c *Config) toSI() {
	length := []UnitElement{{Class: Length, Power: 1}}
	potential := []UnitElement{{Class: Potential, Power: 1}}
	strength := []UnitElement{{Class: Potential, Power: 1}, {Class: Length, Power: -1}}
	inverseLength := []UnitElement{{Class: Length, Power: -1}}

	c.Crystal.HalfX = SI(c.Crystal.HalfX, length, c.InputUnits, true)
	c.Crystal.HalfY = SI(c.Crystal.HalfY, length, c.InputUnits, true)
	c.Crystal.HalfZ = SI(c.Crystal.HalfZ, length, c.InputUnits, true)

	for i := range c.Field.Vector {
		c.Field.Vector[i] = SI(c.Field.Vector[i], strength, c.InputUnits, true)
	}
	c.Field.Potential0 = SI(c.Field.Potential0, potential, c.InputUnits, true)

	for i := range c.Surfaces {
		s := &c.Surfaces[i]
		s.AbsDeltaV = SI(s.AbsDeltaV, potential, c.InputUnits, true)
		s.ElectrodeV = SI(s.ElectrodeV, potential, c.InputUnits, true)
		s.MinKElectron = SI(s.MinKElectron, inverseLength, c.InputUnits, true)
		s.MinKHole = SI(s.MinKHole, inverseLength, c.InputUnits, true)
	}
}

// SurfaceTable builds the policy store of all configured surfaces.
func (c *Config) SurfaceTable() (surface.Table, error) {
	table := surface.Table{}
	for _, s := range c.Surfaces {
		if s.From == "" || s.To == "" {
			return nil, fmt.Errorf("surface needs both From and To volumes")
		}
		err := table.Add(s.From, s.To, surface.Policy{
			AbsProb:      s.AbsProb,
			AbsDeltaV:    s.AbsDeltaV,
			MinKElectron: s.MinKElectron,
			MinKHole:     s.MinKHole,
			ElectrodeV:   s.ElectrodeV,
		})
		if err != nil {
			return nil, err
		}
	}
	return table, nil
}

// Sampler builds the field of the crystal; nil means no field.
func (c *Config) Sampler() (field.Sampler, error) {
	switch c.Field.Kind {
	case "", "none":
		return nil, nil
	case "uniform":
		v := c.Field.Vector
		return field.Uniform{E: r3.Vec{X: v[0], Y: v[1], Z: v[2]}, V0: c.Field.Potential0}, nil
	case "tabulated":
		axis, err := field.ParseAxis(c.Field.Axis)
		if err != nil {
			return nil, err
		}
		path := c.Field.Table
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.dir, path)
		}
		return field.LoadTabulated(path, axis, Scale(Length, c.InputUnits), Scale(Potential, c.InputUnits))
	}
	return nil, fmt.Errorf("unknown field kind %q", c.Field.Kind)
}

type RunParameters struct {
	Carrier    string
	NCarriers  int
	Energy     float64 // [energy]
	MaxSteps   int
	MaxBounces int
	MakeDir    bool

	_outputUnits []string
	_defined     []string
}

func (p *RunParameters) OutputUnits() []string {
	return p._outputUnits
}

func (p *RunParameters) SetOutputUnits(u []string) {
	p._outputUnits = u
}

// Defined reports whether the field was set by the run or the global
// section, as opposed to filled from defaults.
func (p *RunParameters) Defined(fieldName string) bool {
	return slices.Contains(p._defined, fieldName)
}

func (p *RunParameters) Kind() carrier.Kind {
	k, _ := carrier.ParseKind(p.Carrier)
	return k
}

var defaultValues = map[string]any{ // in SI
	"Carrier":    "electron",
	"NCarriers":  1000,
	"Energy":     1e-3, // [eV]
	"MaxSteps":   100000,
	"MaxBounces": -1,
	"MakeDir":    true,
}

var valueUnits = map[string][]UnitElement{
	"Energy": {
		{Class: Energy, Power: 1},
	},
}

func (runConfig *RunParameters) toSI(parameterNames, units []string) {
	runConfigReflect := reflect.ValueOf(runConfig).Elem()
	for _, name := range parameterNames {
		value := runConfigReflect.FieldByName(name)
		if classes, some := valueUnits[name]; some && value.CanFloat() {
			value.SetFloat(SI(value.Float(), classes, units, true))
		}
	}
}

func (runConfig *RunParameters) validate() error {
	if _, err := carrier.ParseKind(runConfig.Carrier); err != nil {
		return err
	}
	if runConfig.NCarriers <= 0 {
		return fmt.Errorf("NCarriers must be positive, got %d", runConfig.NCarriers)
	}
	if runConfig.Energy < 0 {
		return fmt.Errorf("negative Energy %g", runConfig.Energy)
	}
	if runConfig.MaxSteps <= 0 {
		return fmt.Errorf("MaxSteps must be positive, got %d", runConfig.MaxSteps)
	}
	return nil
}

/*
field value priority:
1. run section
2. global section
3. default
values from the two sections are given in input units and converted once
*/

func (runConfig *RunParameters) CheckAndUnify(runName string, config *Config, meta *toml.MetaData) error {
	var discoveredParameters []string

	runConfigReflect := reflect.ValueOf(runConfig).Elem()
	globalConfigReflect := reflect.ValueOf(&config.RunParameters).Elem()
	runConfigType := runConfigReflect.Type()
	for i := range runConfigReflect.NumField() {
		fieldName := runConfigType.Field(i).Name
		if !runConfigType.Field(i).IsExported() {
			continue
		}
		if meta.IsDefined("Runs", runName, fieldName) {
			discoveredParameters = append(discoveredParameters, fieldName)
		} else if meta.IsDefined(fieldName) {
			runConfigReflect.Field(i).Set(globalConfigReflect.Field(i))
			discoveredParameters = append(discoveredParameters, fieldName)
		}
	}

	runConfig.toSI(discoveredParameters, config.InputUnits)
	runConfig._defined = discoveredParameters

	for fieldName, value := range defaultValues {
		if !slices.Contains(discoveredParameters, fieldName) {
			runConfigReflect.FieldByName(fieldName).Set(reflect.ValueOf(value))
		}
	}

	if err := runConfig.validate(); err != nil {
		return fmt.Errorf("run %s: %w", runName, err)
	}
	runConfig._outputUnits = config.OutputUnits
	return nil
}
