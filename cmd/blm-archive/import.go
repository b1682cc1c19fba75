package main

import (
	"context"
	"fmt"

	"github.com/chrissnell/blmheader/internal/database"
	"github.com/chrissnell/blmheader/internal/datasource"
	"github.com/chrissnell/blmheader/internal/datasource/archive"
	"github.com/chrissnell/blmheader/internal/datasource/timescaledb"
	"github.com/chrissnell/blmheader/internal/log"
	"github.com/chrissnell/blmheader/internal/progress"
)

// importArchive loads the window of every archived signal into TimescaleDB,
// creating the schema when needed.
func importArchive(ctx context.Context, cfg Config, reporter progress.Reporter) error {
	logger := log.GetSugaredLogger()

	a, err := archive.Open(ctx, cfg.Archive, 0, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	signals, err := a.Signals(ctx)
	if err != nil {
		return err
	}

	client := database.NewClient(cfg.DSN, logger)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	if err := client.CreateSchema(ctx); err != nil {
		return err
	}
	writer := timescaledb.NewWriter(client.DB)

	tracker := reporter.Start("Importing signals", len(signals))
	defer tracker.Done()

	total := 0
	for _, sig := range signals {
		data, err := a.Get(ctx, []string{sig.Name}, cfg.Window)
		if err != nil {
			return err
		}
		smp := data[sig.Name]
		if smp == nil {
			smp = &datasource.Samples{}
		}
		if err := writer.Store(ctx, sig.Name, sig.Description, smp, sig.Vector); err != nil {
			return fmt.Errorf("failed to import %s: %w", sig.Name, err)
		}
		total += smp.Len()
		tracker.Add(1)
	}

	log.Infof("Imported %d samples of %d signals from %s", total, len(signals), cfg.Archive)
	return nil
}
