package hits

import (
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r3"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wildstyl3r/cmpdrift/internal/carrier"
	"github.com/wildstyl3r/cmpdrift/internal/process"
)

// hitRow is the table layout of a Hit; values are SI.
type hitRow struct {
	ID            uint   `gorm:"primarykey"`
	Run           string `gorm:"index"`
	TrackID       int
	Kind          string
	Outcome       string
	StartEnergy   float64
	EnergyDeposit float64
	Weight        float64
	StartX        float64
	StartY        float64
	StartZ        float64
	FinalX        float64
	FinalY        float64
	FinalZ        float64
	Steps         int
	Valley        int
}

func (hitRow) TableName() string {
	return "hits"
}

// SQLiteSink stores hits of all runs in one database file.
type SQLiteSink struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewSQLiteSink opens (or creates) the database at path; an empty path
// keeps everything in memory.
func NewSQLiteSink(path string, log zerolog.Logger) (*SQLiteSink, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&hitRow{}); err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Msg("using SQLite hit store")
	return &SQLiteSink{db: db, log: log}, nil
}

func (s *SQLiteSink) Write(run string, hits []Hit) error {
	if len(hits) == 0 {
		return nil
	}
	rows := make([]hitRow, len(hits))
	for i, h := range hits {
		rows[i] = hitRow{
			Run:           run,
			TrackID:       int(h.TrackID),
			Kind:          h.Kind.String(),
			Outcome:       h.Outcome.String(),
			StartEnergy:   h.StartEnergy,
			EnergyDeposit: h.EnergyDeposit,
			Weight:        h.Weight,
			StartX:        h.StartPosition.X,
			StartY:        h.StartPosition.Y,
			StartZ:        h.StartPosition.Z,
			FinalX:        h.FinalPosition.X,
			FinalY:        h.FinalPosition.Y,
			FinalZ:        h.FinalPosition.Z,
			Steps:         h.Steps,
			Valley:        h.Valley,
		}
	}
	if err := s.db.CreateInBatches(rows, 500).Error; err != nil {
		return err
	}
	s.log.Debug().Str("run", run).Int("hits", len(rows)).Msg("hits stored")
	return nil
}

// Hits reads back the hits of a run ordered by track.
func (s *SQLiteSink) Hits(run string) ([]Hit, error) {
	var rows []hitRow
	if err := s.db.Where("run = ?", run).Order("track_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	hits := make([]Hit, len(rows))
	for i, r := range rows {
		kind, _ := carrier.ParseKind(r.Kind)
		hits[i] = Hit{
			TrackID:       carrier.TrackID(r.TrackID),
			Kind:          kind,
			Outcome:       parseOutcome(r.Outcome),
			StartEnergy:   r.StartEnergy,
			EnergyDeposit: r.EnergyDeposit,
			Weight:        r.Weight,
			StartPosition: r3.Vec{X: r.StartX, Y: r.StartY, Z: r.StartZ},
			FinalPosition: r3.Vec{X: r.FinalX, Y: r.FinalY, Z: r.FinalZ},
			Steps:         r.Steps,
			Valley:        r.Valley,
		}
	}
	return hits, nil
}

func parseOutcome(s string) process.OutcomeKind {
	for _, k := range process.OutcomeKinds() {
		if k.String() == s {
			return k
		}
	}
	return process.NoAction
}

func (s *SQLiteSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
