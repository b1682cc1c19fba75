// Package archive stores signals in a single SQLite file so headers can be
// rebuilt without access to the live database.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/blmheader/internal/datasource"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS signals (
    name TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS signal_samples (
    time REAL NOT NULL,
    name TEXT NOT NULL REFERENCES signals (name),
    value REAL NULL,
    vector BLOB NULL
);
CREATE INDEX IF NOT EXISTS signal_samples_name_time_idx ON signal_samples (name, time);
`

// Archive is an open SQLite archive. It implements datasource.Source and
// can also be written to.
type Archive struct {
	db      *sql.DB
	path    string
	maxRows int64
	logger  *zap.SugaredLogger
}

// Open opens or creates the archive at path and makes sure the schema
// exists. A positive maxRows makes Get refuse larger ranges with
// datasource.ErrQueryLimit.
func Open(ctx context.Context, path string, maxRows int64, logger *zap.SugaredLogger) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite archive: %w", err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite archive: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return &Archive{
		db:      db,
		path:    path,
		maxRows: maxRows,
		logger:  logger.With("component", "archive", "path", path),
	}, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Search implements datasource.Source.
func (a *Archive) Search(ctx context.Context, pattern string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT name FROM signals WHERE name LIKE ? ESCAPE '\' ORDER BY name`,
		datasource.SQLLike(pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to search signals matching %q: %w", pattern, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan signal name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("signal search iteration error: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %q", datasource.ErrNoMatches, pattern)
	}
	return names, nil
}

// Get implements datasource.Source.
func (a *Archive) Get(ctx context.Context, names []string, w timeutil.Window) (map[string]*datasource.Samples, error) {
	out := make(map[string]*datasource.Samples, len(names))
	if len(names) == 0 {
		return out, nil
	}

	where := "name IN (?" + strings.Repeat(",?", len(names)-1) + ") AND time BETWEEN ? AND ?"
	args := make([]any, 0, len(names)+2)
	for _, n := range names {
		args = append(args, n)
	}
	args = append(args, timeutil.TimeToEpoch(w.Start), timeutil.TimeToEpoch(w.End))

	if a.maxRows > 0 {
		var n int64
		if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM signal_samples WHERE "+where, args...).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count samples over %s: %w", w, err)
		}
		if n > a.maxRows {
			return nil, fmt.Errorf("%w: %d rows over %s, limit %d", datasource.ErrQueryLimit, n, w, a.maxRows)
		}
	}

	rows, err := a.db.QueryContext(ctx,
		"SELECT name, time, value, vector FROM signal_samples WHERE "+where+" ORDER BY name, time", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples over %s: %w", w, err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var (
			name   string
			ts     float64
			value  sql.NullFloat64
			vector []byte
		)
		if err := rows.Scan(&name, &ts, &value, &vector); err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}
		var v *float64
		if value.Valid {
			v = &value.Float64
		}
		row, err := datasource.Row(v, vector)
		if err != nil {
			return nil, fmt.Errorf("signal %s at %f: %w", name, ts, err)
		}
		smp := out[name]
		if smp == nil {
			smp = &datasource.Samples{}
			out[name] = smp
		}
		smp.Timestamps = append(smp.Timestamps, ts)
		smp.Values = append(smp.Values, row)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sample iteration error: %w", err)
	}
	a.logger.Debugf("fetched %d rows for %d signal(s) over %s", count, len(names), w)
	return out, nil
}

// Store registers name and appends its samples in one transaction.
func (a *Archive) Store(ctx context.Context, name, description string, smp *datasource.Samples, vector bool) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO signals (name, description) VALUES (?, ?)
		 ON CONFLICT (name) DO UPDATE SET description = excluded.description`,
		name, description); err != nil {
		return fmt.Errorf("failed to register signal %s: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO signal_samples (time, name, value, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i, ts := range smp.Timestamps {
		value, vec, err := datasource.Split(smp.Values[i], vector)
		if err != nil {
			return fmt.Errorf("signal %s sample %d: %w", name, i, err)
		}
		var v sql.NullFloat64
		if value != nil {
			v = sql.NullFloat64{Float64: *value, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, ts, name, v, vec); err != nil {
			return fmt.Errorf("failed to insert sample %d of %s: %w", i, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit signal %s: %w", name, err)
	}
	return nil
}

// Signal is a catalog entry.
type Signal struct {
	Name        string
	Description string
	Vector      bool
}

// Signals lists the catalog, flagging signals stored as vectors.
func (a *Archive) Signals(ctx context.Context) ([]Signal, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT s.name, s.description,
		       EXISTS (SELECT 1 FROM signal_samples v WHERE v.name = s.name AND v.vector IS NOT NULL)
		FROM signals s
		ORDER BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	defer rows.Close()

	var out []Signal
	for rows.Next() {
		var s Signal
		if err := rows.Scan(&s.Name, &s.Description, &s.Vector); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
