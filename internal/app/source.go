package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chrissnell/blmheader/internal/database"
	"github.com/chrissnell/blmheader/internal/datasource"
	"github.com/chrissnell/blmheader/internal/datasource/archive"
	"github.com/chrissnell/blmheader/internal/datasource/timescaledb"
	"github.com/chrissnell/blmheader/pkg/config"
)

// OpenSource opens the configured data source. The returned function
// releases it.
func OpenSource(ctx context.Context, cfg *config.ConfigData, logger *zap.SugaredLogger) (datasource.Source, func(), error) {
	switch cfg.DataSource.Type {
	case config.DataSourceTimescaleDB:
		client := database.NewClient(cfg.DataSource.TimescaleDB.ConnectionString, logger)
		if err := client.Connect(ctx); err != nil {
			return nil, nil, err
		}
		src := timescaledb.New(client.DB, cfg.DataSource.TimescaleDB.MaxRows, logger)
		return src, func() {
			if err := client.Close(); err != nil {
				logger.Warnf("error closing TimescaleDB connection: %v", err)
			}
		}, nil

	case config.DataSourceArchive:
		a, err := archive.Open(ctx, cfg.DataSource.Archive.Path, cfg.DataSource.Archive.MaxRows, logger)
		if err != nil {
			return nil, nil, err
		}
		return a, func() {
			if err := a.Close(); err != nil {
				logger.Warnf("error closing archive: %v", err)
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown datasource type %q", cfg.DataSource.Type)
}
