// Package distance computes the dissimilarity between every column of a
// vector signal and every candidate signal.
//
// The metric is mean(|column - candidate|) taken over the timestamps both
// series share after alignment. Timestamps present on one side only are left
// out of the mean. A pair that shares no timestamp at all has no distance:
// Distance reports ErrEmptyOverlap and Compute stores +Inf for it, so the
// pair can never win an assignment but the run carries on.
package distance

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrissnell/blmheader/internal/series"
)

// ErrEmptyOverlap is returned when two series have no timestamp in common.
var ErrEmptyOverlap = errors.New("series share no common timestamp")

// Distance returns mean(|column - candidate|) over their common timestamps.
// Both series must be aligned. The result equals
// series.MeanAbs(series.Difference(column, candidate)); the merge join below
// computes it without building the union of timestamps.
func Distance(column, candidate *series.Series) (float64, error) {
	d, n := meanAbsDiff(prepare(column), prepare(candidate))
	if n == 0 {
		return math.Inf(1), fmt.Errorf("%w: column %s, candidate %s", ErrEmptyOverlap, column.Name, candidate.Name)
	}
	return d, nil
}

// prepared is a series reduced to what the merge loop touches.
type prepared struct {
	keys   []int64
	values []float64
}

func prepare(s *series.Series) prepared {
	return prepared{keys: s.Keys(), values: s.Values}
}

// meanAbsDiff merge-joins two sorted key sets and averages |a-b| over the
// matching keys. Rows where either value is NaN count as missing.
func meanAbsDiff(a, b prepared) (float64, int) {
	var sum float64
	var n int
	i, j := 0, 0
	for i < len(a.keys) && j < len(b.keys) {
		ka, kb := a.keys[i], b.keys[j]
		switch {
		case ka < kb:
			i++
		case kb < ka:
			j++
		default:
			d := a.values[i] - b.values[j]
			if !math.IsNaN(d) {
				sum += math.Abs(d)
				n++
			}
			i++
			j++
		}
	}
	if n == 0 {
		return math.Inf(1), 0
	}
	return sum / float64(n), n
}
