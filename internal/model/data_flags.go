package model

import (
	"math"
	"strconv"

	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/config"
	"github.com/wildstyl3r/cmpdrift/internal/constants"
	"github.com/wildstyl3r/cmpdrift/internal/process"
)

type DataItem struct {
	saveFlag   *bool
	fileSuffix string
}

type SequentialDataItem struct {
	DataItem
	columnNames []string
	values      func(*DataExtractor) (args []float64, values [][]float64, labels []string)
	xUnit       []config.UnitElement
	yUnit       []config.UnitElement
}

// TableDataItem rows are written in natural order of their first column.
type TableDataItem struct {
	DataItem
	columnNames []string
	rows        func(*DataExtractor) [][]string
}

type DataFlags struct {
	all         *bool
	hits        *bool
	sequentials map[string]SequentialDataItem
	tables      map[string]TableDataItem
	outputPath  string
}

const profilePoints = 101

func NewDataFlags(fs *pflag.FlagSet) DataFlags {
	return DataFlags{
		all:  fs.Bool("all", false, "save every available metric"),
		hits: fs.Bool("hits", true, "save the hit table"),
		sequentials: map[string]SequentialDataItem{
			"Mean free path": {
				DataItem: DataItem{
					saveFlag:   fs.BoolP("mfp", "m", false, "save inter-valley mean free path against field polar angle"),
					fileSuffix: "mfp",
				},
				columnNames: []string{"theta (deg)", "mean free path"},
				values: func(de *DataExtractor) (args []float64, values [][]float64, labels []string) {
					for i := range de.angles {
						args = append(args, de.angles[i])
						values = append(values, de.mfp[i])
					}
					for v := 1; v <= constants.NumValleys; v++ {
						labels = append(labels, "valley "+strconv.Itoa(v))
					}
					return args, values, labels
				},
				xUnit: []config.UnitElement{},
				yUnit: []config.UnitElement{{Class: config.Length, Power: 1}},
			},
			"Potential": {
				DataItem: DataItem{
					saveFlag:   fs.BoolP("potential", "p", false, "save potential along z"),
					fileSuffix: "V",
				},
				columnNames: []string{"z", "V"},
				values: func(de *DataExtractor) (args []float64, values [][]float64, labels []string) {
					sampler, ok := de.model.Box.Field(de.model.Box.Crystal)
					if !ok {
						return nil, nil, nil
					}
					half := de.model.Box.Half.Z
					for i := range profilePoints {
						z := -half + 2*half*float64(i)/float64(profilePoints-1)
						if v, ok := sampler.PotentialAt(r3.Vec{Z: z}); ok {
							args = append(args, z)
							values = append(values, []float64{v})
						}
					}
					return args, values, nil
				},
				xUnit: []config.UnitElement{{Class: config.Length, Power: 1}},
				yUnit: []config.UnitElement{{Class: config.Potential, Power: 1}},
			},
			"Electric field": {
				DataItem: DataItem{
					saveFlag:   fs.BoolP("field", "e", false, "save field along z"),
					fileSuffix: "E",
				},
				columnNames: []string{"z", "E"},
				values: func(de *DataExtractor) (args []float64, values [][]float64, labels []string) {
					sampler, ok := de.model.Box.Field(de.model.Box.Crystal)
					if !ok {
						return nil, nil, nil
					}
					half := de.model.Box.Half.Z
					for i := range profilePoints {
						z := -half + 2*half*float64(i)/float64(profilePoints-1)
						pos := r3.Add(de.model.Box.Center, r3.Vec{Z: z})
						if e, ok := sampler.FieldAt(pos); ok {
							args = append(args, z)
							values = append(values, []float64{e.X, e.Y, e.Z})
						}
					}
					return args, values, []string{"Ex", "Ey", "Ez"}
				},
				xUnit: []config.UnitElement{{Class: config.Length, Power: 1}},
				yUnit: []config.UnitElement{{Class: config.Potential, Power: 1}, {Class: config.Length, Power: -1}},
			},
		},
		tables: map[string]TableDataItem{
			"Outcomes": {
				DataItem: DataItem{
					saveFlag:   fs.BoolP("outcomes", "o", true, "save outcome counters"),
					fileSuffix: "outcomes",
				},
				columnNames: []string{"outcome", "count", "fraction"},
				rows: func(de *DataExtractor) [][]string {
					m := de.model
					total := float64(m.Escaped + m.Stalled)
					for _, n := range m.Outcomes {
						total += float64(n)
					}
					row := func(name string, n int) []string {
						fraction := 0.
						if total > 0 {
							fraction = float64(n) / total
						}
						return []string{name, strconv.Itoa(n), strconv.FormatFloat(fraction, 'f', -1, 64)}
					}
					rows := [][]string{row("escaped", m.Escaped), row("stalled", m.Stalled), row("thinned", m.Thinned)}
					for _, kind := range []process.OutcomeKind{process.Absorbed, process.ElectrodeHit} {
						rows = append(rows, row(kind.String(), m.Outcomes[kind]))
					}
					return rows
				},
			},
			"Valley occupancy": {
				DataItem: DataItem{
					saveFlag:   fs.BoolP("valleys", "v", false, "save valley reassignment counters"),
					fileSuffix: "valleys",
				},
				columnNames: []string{"valley", "entries", "expected"},
				rows: func(de *DataExtractor) [][]string {
					var rows [][]string
					for v, n := range de.model.ValleyEntries {
						rows = append(rows, []string{
							strconv.Itoa(v + 1),
							strconv.Itoa(n),
							strconv.FormatFloat(de.expectedEntries, 'f', -1, 64),
						})
					}
					return append(rows, []string{"chi2", strconv.FormatFloat(de.chi2, 'g', -1, 64), ""})
				},
			},
			"Deposits": {
				DataItem: DataItem{
					saveFlag:   fs.BoolP("deposits", "d", false, "save deposited energy statistics"),
					fileSuffix: "deposits",
				},
				columnNames: []string{"quantity", "value"},
				rows: func(de *DataExtractor) [][]string {
					energy := []config.UnitElement{{Class: config.Energy, Power: 1}}
					f := func(v float64) string {
						return strconv.FormatFloat(config.SI(v, energy, de.model.Parameters.OutputUnits(), false), 'g', -1, 64)
					}
					confidence := 0.
					if n := len(de.model.Deposits); n > 0 {
						confidence = constants.Quantile95 * math.Sqrt(de.depositVariance/float64(n))
					}
					return [][]string{
						{"mean", f(de.depositMean)},
						{"variance", strconv.FormatFloat(config.SI(de.depositVariance, []config.UnitElement{{Class: config.Energy, Power: 2}}, de.model.Parameters.OutputUnits(), false), 'g', -1, 64)},
						{"conf_interval", f(confidence)},
						{"total", f(de.depositTotal)},
					}
				},
			},
		},
	}
}

// Hits reports whether the hit table is requested.
func (df *DataFlags) Hits() bool {
	return *df.hits || *df.all
}

func (df *DataFlags) SetOutputPath(path string) {
	df.outputPath = path
}

func (df *DataFlags) GetOutputPath() string {
	return df.outputPath
}
