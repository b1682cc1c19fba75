package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chrissnell/blmheader/internal/datasource"
	"github.com/chrissnell/blmheader/internal/datasource/archive"
	"github.com/chrissnell/blmheader/internal/log"
	"github.com/chrissnell/blmheader/internal/progress"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

type signalEntry struct {
	Name        string
	Description string
}

// export copies every signal matching the patterns over the window from
// TimescaleDB into the archive.
func export(ctx context.Context, cfg Config, reporter progress.Reporter) error {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	signals, err := listSignals(ctx, pool, cfg.Patterns)
	if err != nil {
		return err
	}
	log.Infof("Found %d signals to export over %s", len(signals), cfg.Window)

	a, err := archive.Open(ctx, cfg.Archive, 0, log.GetSugaredLogger())
	if err != nil {
		return err
	}
	defer a.Close()

	tracker := reporter.Start("Exporting signals", len(signals))
	defer tracker.Done()

	total := 0
	for _, sig := range signals {
		smp, vector, err := fetchSamples(ctx, pool, sig.Name, cfg.Window)
		if err != nil {
			return err
		}
		if err := a.Store(ctx, sig.Name, sig.Description, smp, vector); err != nil {
			return err
		}
		total += smp.Len()
		tracker.Add(1)
	}

	log.Infof("Exported %d samples of %d signals to %s", total, len(signals), cfg.Archive)
	return nil
}

func listSignals(ctx context.Context, pool *pgxpool.Pool, patterns []string) ([]signalEntry, error) {
	seen := make(map[string]bool)
	var out []signalEntry
	for _, p := range patterns {
		rows, err := pool.Query(ctx,
			`SELECT name, description FROM signals WHERE name LIKE $1 ESCAPE '\' ORDER BY name`,
			datasource.SQLLike(p))
		if err != nil {
			return nil, fmt.Errorf("failed to list signals matching %q: %w", p, err)
		}
		entries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[signalEntry])
		if err != nil {
			return nil, fmt.Errorf("failed to scan signals matching %q: %w", p, err)
		}
		for _, e := range entries {
			if !seen[e.Name] {
				seen[e.Name] = true
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func fetchSamples(ctx context.Context, pool *pgxpool.Pool, name string, w timeutil.Window) (*datasource.Samples, bool, error) {
	rows, err := pool.Query(ctx,
		`SELECT time, value, vector FROM signal_samples WHERE name = $1 AND time BETWEEN $2 AND $3 ORDER BY time`,
		name, w.Start, w.End)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query samples of %s: %w", name, err)
	}
	defer rows.Close()

	smp := &datasource.Samples{}
	vector := false
	for rows.Next() {
		var (
			ts    time.Time
			value *float64
			vec   []byte
		)
		if err := rows.Scan(&ts, &value, &vec); err != nil {
			return nil, false, fmt.Errorf("failed to scan sample of %s: %w", name, err)
		}
		row, err := datasource.Row(value, vec)
		if err != nil {
			return nil, false, fmt.Errorf("signal %s at %s: %w", name, ts, err)
		}
		vector = vector || len(vec) > 0
		smp.Timestamps = append(smp.Timestamps, timeutil.TimeToEpoch(ts))
		smp.Values = append(smp.Values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("row iteration error: %w", err)
	}
	return smp, vector, nil
}
