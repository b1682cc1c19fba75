// Package timescaledb serves signals stored in TimescaleDB through gorm.
package timescaledb

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chrissnell/blmheader/internal/database"
	"github.com/chrissnell/blmheader/internal/datasource"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

const insertBatchSize = 1000

// Source implements datasource.Source on the signals and signal_samples
// tables.
type Source struct {
	db      *gorm.DB
	maxRows int64
	logger  *zap.SugaredLogger
}

// New returns a Source reading through db. A positive maxRows makes Get
// refuse ranges holding more rows with datasource.ErrQueryLimit.
func New(db *gorm.DB, maxRows int64, logger *zap.SugaredLogger) *Source {
	return &Source{
		db:      db,
		maxRows: maxRows,
		logger:  logger.With("component", "timescaledb"),
	}
}

// Search implements datasource.Source.
func (s *Source) Search(ctx context.Context, pattern string) ([]string, error) {
	var names []string
	err := searchQuery(s.db.WithContext(ctx), pattern).Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("error searching signals matching %q: %w", pattern, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %q", datasource.ErrNoMatches, pattern)
	}
	s.logger.Debugf("%d signals match %q", len(names), pattern)
	return names, nil
}

// Get implements datasource.Source.
func (s *Source) Get(ctx context.Context, names []string, w timeutil.Window) (map[string]*datasource.Samples, error) {
	q := rangeQuery(s.db.WithContext(ctx), names, w)

	if s.maxRows > 0 {
		var n int64
		if err := q.Session(&gorm.Session{}).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("error counting samples over %s: %w", w, err)
		}
		if n > s.maxRows {
			return nil, fmt.Errorf("%w: %d rows over %s, limit %d", datasource.ErrQueryLimit, n, w, s.maxRows)
		}
	}

	var rows []database.SignalSample
	if err := q.Order("name, time").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("error querying samples over %s: %w", w, err)
	}

	out := make(map[string]*datasource.Samples, len(names))
	for _, r := range rows {
		row, err := datasource.Row(r.Value, r.Vector)
		if err != nil {
			return nil, fmt.Errorf("signal %s at %s: %w", r.Name, r.Time, err)
		}
		smp := out[r.Name]
		if smp == nil {
			smp = &datasource.Samples{}
			out[r.Name] = smp
		}
		smp.Timestamps = append(smp.Timestamps, timeutil.TimeToEpoch(r.Time))
		smp.Values = append(smp.Values, row)
	}
	s.logger.Debugf("fetched %d rows for %d signal(s) over %s", len(rows), len(names), w)
	return out, nil
}

func searchQuery(db *gorm.DB, pattern string) *gorm.DB {
	return db.Model(&database.Signal{}).
		Where(`name LIKE ? ESCAPE '\'`, datasource.SQLLike(pattern)).
		Order("name")
}

func rangeQuery(db *gorm.DB, names []string, w timeutil.Window) *gorm.DB {
	return db.Model(&database.SignalSample{}).
		Where("name IN ? AND time BETWEEN ? AND ?", names, w.Start, w.End)
}

// Writer stores signals into TimescaleDB.
type Writer struct {
	db *gorm.DB
}

// NewWriter returns a Writer using db.
func NewWriter(db *gorm.DB) *Writer {
	return &Writer{db: db}
}

// Store registers name in the catalog and inserts its samples. Vector
// signals are stored msgpack encoded.
func (wr *Writer) Store(ctx context.Context, name, description string, smp *datasource.Samples, vector bool) error {
	return wr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sig := database.Signal{Name: name, Description: description}
		if err := tx.Where(database.Signal{Name: name}).Assign(database.Signal{Description: description}).FirstOrCreate(&sig).Error; err != nil {
			return fmt.Errorf("error registering signal %s: %w", name, err)
		}

		rows := make([]database.SignalSample, 0, smp.Len())
		for i, ts := range smp.Timestamps {
			value, vec, err := datasource.Split(smp.Values[i], vector)
			if err != nil {
				return fmt.Errorf("signal %s sample %d: %w", name, i, err)
			}
			rows = append(rows, database.SignalSample{
				Time:   timeutil.EpochToTime(ts, time.UTC),
				Name:   name,
				Value:  value,
				Vector: vec,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("error inserting %d samples of %s: %w", len(rows), name, err)
		}
		return nil
	})
}
