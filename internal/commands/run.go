package commands

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/wildstyl3r/cmpdrift/internal/config"
	"github.com/wildstyl3r/cmpdrift/internal/geometry"
	"github.com/wildstyl3r/cmpdrift/internal/hits"
	"github.com/wildstyl3r/cmpdrift/internal/model"
)

func runCmd() *cobra.Command {
	var (
		input      string
		sqlitePath string
		df         model.DataFlags
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drift carriers for every run of an input file",
		RunE: func(cmd *cobra.Command, args []string) error {
			startTime := time.Now()
			log.Info().Str("time", startTime.UTC().Format(time.UnixDate)).Msg("starting")

			cfg, meta, err := config.LoadConfig(input)
			if err != nil {
				return err
			}
			sampler, err := cfg.Sampler()
			if err != nil {
				return fmt.Errorf("field: %w", err)
			}
			table, err := cfg.SurfaceTable()
			if err != nil {
				return err
			}
			box := &geometry.Box{
				Crystal:     cfg.Crystal.Name,
				World:       cfg.Crystal.World,
				LatticeName: cfg.Crystal.Lattice,
				Half:        r3.Vec{X: cfg.Crystal.HalfX, Y: cfg.Crystal.HalfY, Z: cfg.Crystal.HalfZ},
				Sampler:     sampler,
			}

			if cfg.OutputDir != "" && cfg.OutputDir != "." {
				if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
					return err
				}
			}
			df.SetOutputPath(cfg.OutputDir)

			var store *hits.SQLiteSink
			if sqlitePath != "" {
				store, err = hits.NewSQLiteSink(sqlitePath, log)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			for _, runName := range slices.Sorted(maps.Keys(cfg.Runs)) {
				parameters := cfg.Runs[runName]
				if err := parameters.CheckAndUnify(runName, &cfg, &meta); err != nil {
					return err
				}

				m := model.NewModel(runName, parameters, settings, box, table, log)
				m.Run()
				if err := model.NewDataExtractor(m).Save(df); err != nil {
					return err
				}

				var sinks []hits.Sink
				if df.Hits() {
					sinks = append(sinks, &hits.CSVSink{
						OutputPath: df.GetOutputPath(),
						MakeDir:    parameters.MakeDir,
						Units:      parameters.OutputUnits(),
					})
				}
				if store != nil {
					sinks = append(sinks, store)
				}
				for _, sink := range sinks {
					if err := sink.Write(runName, m.Hits); err != nil {
						return err
					}
				}
			}

			log.Info().Dur("elapsed", time.Since(startTime)).Msg("done")
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "run description in toml format")
	cmd.MarkFlagRequired("input")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also store hits in this SQLite database")
	df = model.NewDataFlags(cmd.Flags())
	return cmd
}
