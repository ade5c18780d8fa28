package hits

import (
	"fmt"
	"strconv"

	"github.com/wildstyl3r/cmpdrift/internal/config"
	"github.com/wildstyl3r/cmpdrift/internal/utils"
)

var csvColumns = []string{
	"track", "kind", "outcome", "start energy", "deposit", "weight",
	"start x", "start y", "start z", "final x", "final y", "final z",
	"steps", "valley",
}

// CSVSink writes one table per run next to the other outputs.
type CSVSink struct {
	OutputPath string
	MakeDir    bool
	Units      []string // output units, see config.SI
}

func (s *CSVSink) Write(run string, hits []Hit) error {
	file, err := utils.OpenFile(s.MakeDir, s.OutputPath, "hits", run)
	if err != nil {
		return fmt.Errorf("unable to save hits: %w", err)
	}
	defer file.Close()

	length := []config.UnitElement{{Class: config.Length, Power: 1}}
	energy := []config.UnitElement{{Class: config.Energy, Power: 1}}
	f := func(v float64, classes []config.UnitElement) string {
		return strconv.FormatFloat(config.SI(v, classes, s.Units, false), 'g', -1, 64)
	}

	rows := make(utils.CSV, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, []string{
			strconv.Itoa(int(h.TrackID)),
			h.Kind.String(),
			h.Outcome.String(),
			f(h.StartEnergy, energy),
			f(h.EnergyDeposit, energy),
			strconv.FormatFloat(h.Weight, 'g', -1, 64),
			f(h.StartPosition.X, length),
			f(h.StartPosition.Y, length),
			f(h.StartPosition.Z, length),
			f(h.FinalPosition.X, length),
			f(h.FinalPosition.Y, length),
			f(h.FinalPosition.Z, length),
			strconv.Itoa(h.Steps),
			strconv.Itoa(h.Valley),
		})
	}
	return utils.WriteSortedCSV(file, csvColumns, rows)
}

func (s *CSVSink) Close() error {
	return nil
}
