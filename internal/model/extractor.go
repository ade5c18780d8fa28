package model

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/config"
	"github.com/wildstyl3r/cmpdrift/internal/constants"
	"github.com/wildstyl3r/cmpdrift/internal/field"
	"github.com/wildstyl3r/cmpdrift/internal/intervalley"
	"github.com/wildstyl3r/cmpdrift/internal/process"
	"github.com/wildstyl3r/cmpdrift/internal/utils"
)

const angleStep = 5. // [deg]

type DataExtractor struct {
	model *Model

	angles []float64   // field polar angle [deg]
	mfp    [][]float64 // [angle][valley] at the run energy

	expectedEntries float64
	chi2            float64

	depositMean     float64
	depositVariance float64
	depositTotal    float64
}

func NewDataExtractor(model *Model) *DataExtractor {
	de := DataExtractor{model: model}

	velocity := utils.EV2electronVelocity(model.Parameters.Energy)
	for theta := 0.; theta <= 180.; theta += angleStep {
		rad := theta * math.Pi / 180.
		direction := r3.Vec{X: math.Sin(rad), Z: math.Cos(rad)}
		row := make([]float64, constants.NumValleys)
		for v := range constants.NumValleys {
			row[v] = meanFreePath(direction, v+1, velocity)
		}
		de.angles = append(de.angles, theta)
		de.mfp = append(de.mfp, row)
	}

	var observed, expected []float64
	total := utils.SumSlice(model.ValleyEntries[:])
	if total > 0 {
		de.expectedEntries = float64(total) / constants.NumValleys
		for _, n := range model.ValleyEntries {
			observed = append(observed, float64(n))
			expected = append(expected, de.expectedEntries)
		}
		de.chi2 = stat.ChiSquare(observed, expected)
	}

	de.depositMean, de.depositVariance = utils.MeanAndVariance(model.Deposits, true)
	de.depositTotal = utils.SumSlice(model.Deposits)

	model.log.Info().
		Ints("valley_entries", model.ValleyEntries[:]).
		Float64("chi2", de.chi2).
		Msg("valley occupancy")
	return &de
}

// meanFreePath evaluates the inter-valley law for a unit field along
// direction, seen from the given valley.
func meanFreePath(direction r3.Vec, v int, velocity float64) float64 {
	valleys := carrier.NewValleyTable()
	c := carrier.New(1, carrier.Electron, r3.Vec{}, r3.Vec{Z: 1}, 0, "")
	valleys.SetValley(c.TrackID, v)
	scattering := intervalley.New(field.Uniform{E: direction}, valleys, nil, zerolog.Nop())
	mfp, _ := scattering.MeanFreePath(&process.Step{Track: c, PostVelocity: velocity})
	return mfp
}

func (de *DataExtractor) Save(df DataFlags) error {
	var errs []error
	for name, output := range df.sequentials {
		if !*output.saveFlag && !*df.all {
			continue
		}
		xColumnValue, yColumnValues, yLabels := output.values(de)
		if len(xColumnValue) == 0 {
			de.model.log.Debug().Str("output", name).Msg("nothing to save")
			continue
		}
		if err := de.saveSequential(df, output, xColumnValue, yColumnValues, yLabels); err != nil {
			errs = append(errs, fmt.Errorf("unable to save %s: %w", name, err))
			continue
		}
		de.model.log.Info().Str("output", name).Msg("saved")
	}
	for name, output := range df.tables {
		if !*output.saveFlag && !*df.all {
			continue
		}
		if err := de.saveTable(df, output); err != nil {
			errs = append(errs, fmt.Errorf("unable to save %s: %w", name, err))
			continue
		}
		de.model.log.Info().Str("output", name).Msg("saved")
	}
	return errors.Join(errs...)
}

func (de *DataExtractor) saveSequential(df DataFlags, output SequentialDataItem, xColumnValue []float64, yColumnValues [][]float64, yLabels []string) error {
	file, err := utils.OpenFile(de.model.Parameters.MakeDir, df.outputPath, output.fileSuffix, de.model.Name)
	if err != nil {
		return err
	}
	defer file.Close()

	units := de.model.Parameters.OutputUnits()
	rows := [][]string{output.columnNames}
	rows = append(rows, append([]string{""}, yLabels...))
	for x := range xColumnValue {
		row := []string{strconv.FormatFloat(config.SI(xColumnValue[x], output.xUnit, units, false), 'f', -1, 64)}
		for i := range yColumnValues[x] {
			row = append(row, strconv.FormatFloat(config.SI(yColumnValues[x][i], output.yUnit, units, false), 'f', -1, 64))
		}
		rows = append(rows, row)
	}
	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return w.Error()
}

func (de *DataExtractor) saveTable(df DataFlags, output TableDataItem) error {
	file, err := utils.OpenFile(de.model.Parameters.MakeDir, df.outputPath, output.fileSuffix, de.model.Name)
	if err != nil {
		return err
	}
	defer file.Close()
	return utils.WriteSortedCSV(file, output.columnNames, output.rows(de))
}
