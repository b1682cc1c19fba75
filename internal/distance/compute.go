package distance

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/blmheader/internal/progress"
	"github.com/chrissnell/blmheader/internal/series"
)

// Options controls the distance worker pool.
type Options struct {
	// Workers is the number of goroutines computing rows. Zero or a negative
	// value means one per available CPU.
	Workers int

	// Progress receives one step per finished vector column.
	Progress progress.Reporter

	Logger *zap.SugaredLogger
}

// ResolveWorkers turns a requested worker count into a concrete one.
func ResolveWorkers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Chunks splits [0, total) into parts contiguous ranges whose sizes differ
// by at most one, earlier ranges taking the remainder. Ranges may be empty
// when parts exceeds total.
func Chunks(total, parts int) [][2]int {
	if parts < 1 {
		parts = 1
	}
	res := make([][2]int, parts)
	base, rem := total/parts, total%parts
	start := 0
	for i := 0; i < parts; i++ {
		size := base
		if i < rem {
			size++
		}
		res[i] = [2]int{start, start + size}
		start += size
	}
	return res
}

// chunkResult holds the rows one worker produced for its range.
type chunkResult struct {
	rows  [][]float64
	empty int
}

// Compute fills the distance matrix for every (column, candidate) pair.
// Columns are split statically across the workers, each worker owning one
// contiguous range; candidates are shared read-only. Rows come back in the
// order of columns whatever order the workers finish in.
func Compute(ctx context.Context, columns []*series.Series, candidates *series.Collection, opts Options) (*Matrix, error) {
	if len(columns) == 0 || candidates.Len() == 0 {
		return nil, fmt.Errorf("nothing to compare: %d columns, %d candidates", len(columns), candidates.Len())
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	reporter := opts.Progress
	if reporter == nil {
		reporter = progress.Nop()
	}

	workers := ResolveWorkers(opts.Workers)
	if workers > len(columns) {
		workers = len(columns)
	}

	// Candidate keys are computed once and shared by every worker.
	cands := candidates.Series()
	names := candidates.Names()
	prepCands := make([]prepared, len(cands))
	for j, c := range cands {
		prepCands[j] = prepare(c)
	}

	logger.Infof("computing %d x %d distance matrix with %d workers", len(columns), len(cands), workers)
	start := time.Now()

	tracker := reporter.Start("Computing distance matrix", len(columns))
	defer tracker.Done()

	chunks := Chunks(len(columns), workers)
	results := make([]chunkResult, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for w, span := range chunks {
		w, span := w, span
		if span[0] == span[1] {
			continue
		}
		g.Go(func() error {
			res := chunkResult{rows: make([][]float64, 0, span[1]-span[0])}
			for i := span[0]; i < span[1]; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				col := prepare(columns[i])
				row := make([]float64, len(prepCands))
				for j, cand := range prepCands {
					d, n := meanAbsDiff(col, cand)
					if n == 0 {
						res.empty++
					}
					row[j] = d
				}
				res.rows = append(res.rows, row)
				tracker.Add(1)
			}
			logger.Debugf("worker %d finished columns [%d, %d)", w, span[0], span[1])
			results[w] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("distance matrix computation interrupted: %w", err)
	}

	rows := make([][]float64, 0, len(columns))
	empty := 0
	for _, r := range results {
		rows = append(rows, r.rows...)
		empty += r.empty
	}

	colNames := make([]string, len(columns))
	for i, c := range columns {
		colNames[i] = c.Name
	}
	m, err := NewMatrix(colNames, names, rows)
	if err != nil {
		return nil, err
	}
	m.emptyPairs = empty

	logger.Infof("distance matrix computed in %s", time.Since(start).Round(time.Millisecond))
	if empty > 0 {
		logger.Debugf("%d column/candidate pairs share no timestamp", empty)
	}
	return m, nil
}
