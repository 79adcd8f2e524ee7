package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/igraphixwebpreview/RoadReportHub/internal/config"
	"github.com/igraphixwebpreview/RoadReportHub/internal/service"
	"github.com/igraphixwebpreview/RoadReportHub/internal/storage/memory"
	"github.com/igraphixwebpreview/RoadReportHub/internal/storage/postgres"
	"github.com/igraphixwebpreview/RoadReportHub/internal/storage/sqlite"
)

// Storage is the repository set for the configured driver. Ping is nil for
// the in-memory driver.
type Storage struct {
	Incidents     service.IncidentRepository
	Verifications service.VerificationLedger
	Settings      service.SettingsRepository
	Checks        service.LocationCheckRepository

	Ping  func(ctx context.Context) error
	Close func() error
}

func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pg, err := postgres.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Incidents:     pg.Incidents,
			Verifications: pg.Verifications,
			Settings:      pg.Settings,
			Checks:        pg.Checks,
			Ping:          pg.Ping,
			Close: func() error {
				pg.Close()
				return nil
			},
		}, nil

	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		return &Storage{
			Incidents:     db,
			Verifications: db,
			Settings:      db,
			Checks:        db,
			Ping:          db.Ping,
			Close:         db.Close,
		}, nil

	case config.StorageMemory:
		logger.Warn("memory storage selected, data is lost on restart")
		st := memory.New()
		return &Storage{
			Incidents:     st,
			Verifications: st,
			Settings:      st,
			Checks:        st,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
