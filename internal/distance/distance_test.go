package distance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/blmheader/internal/progress"
	"github.com/chrissnell/blmheader/internal/series"
)

var t0 = time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

func seq(name string, start, n int, f func(i int) float64) *series.Series {
	s := &series.Series{Name: name}
	for i := 0; i < n; i++ {
		s.Times = append(s.Times, t0.Add(time.Duration(start+i)*time.Second))
		s.Values = append(s.Values, f(i))
	}
	return s
}

func TestDistanceSelfIsZero(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	s := seq("a", 0, 200, func(int) float64 { return r.NormFloat64() })

	d, err := Distance(s, s)
	require.NoError(t, err)
	assert.Zero(t, d)
}

func TestDistanceMatchesOuterJoin(t *testing.T) {
	a := seq("a", 0, 50, func(i int) float64 { return float64(i) })
	b := seq("b", 20, 50, func(i int) float64 { return float64(i) * 0.5 })

	d, err := Distance(a, b)
	require.NoError(t, err)

	want, n := series.MeanAbs(series.Difference(a, b))
	assert.Equal(t, 30, n)
	assert.InDelta(t, want, d, 1e-12)
}

func TestDistanceEmptyOverlap(t *testing.T) {
	a := seq("a", 0, 10, func(int) float64 { return 1 })
	b := seq("b", 100, 10, func(int) float64 { return 1 })

	d, err := Distance(a, b)
	assert.True(t, errors.Is(err, ErrEmptyOverlap))
	assert.True(t, math.IsInf(d, 1))

	_, err = Distance(a, &series.Series{Name: "empty"})
	assert.ErrorIs(t, err, ErrEmptyOverlap)
}

func TestChunks(t *testing.T) {
	tests := []struct {
		total, parts int
		want         [][2]int
	}{
		{10, 3, [][2]int{{0, 4}, {4, 7}, {7, 10}}},
		{9, 3, [][2]int{{0, 3}, {3, 6}, {6, 9}}},
		{2, 4, [][2]int{{0, 1}, {1, 2}, {2, 2}, {2, 2}}},
		{5, 1, [][2]int{{0, 5}}},
		{5, 0, [][2]int{{0, 5}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Chunks(tt.total, tt.parts), "%d/%d", tt.total, tt.parts)
	}
}

func TestResolveWorkers(t *testing.T) {
	assert.Equal(t, 3, ResolveWorkers(3))
	assert.GreaterOrEqual(t, ResolveWorkers(-1), 1)
	assert.Equal(t, ResolveWorkers(-1), ResolveWorkers(0))
}

func randomInputs(nCols, nCands int) ([]*series.Series, *series.Collection) {
	r := rand.New(rand.NewSource(42))
	cols := make([]*series.Series, nCols)
	for i := range cols {
		cols[i] = seq(fmt.Sprint(i), 0, 120, func(int) float64 { return r.Float64() })
	}
	cands := series.NewCollection()
	for j := 0; j < nCands; j++ {
		// Irregular, offset sampling so overlaps vary per pair.
		start := r.Intn(60)
		cands.Add(seq(fmt.Sprintf("C%02d", j), start, 90, func(int) float64 { return r.Float64() }))
	}
	return cols, cands
}

func TestComputeRowOrderIndependentOfWorkers(t *testing.T) {
	cols, cands := randomInputs(37, 11)

	single, err := Compute(context.Background(), cols, cands, Options{Workers: 1})
	require.NoError(t, err)

	for _, w := range []int{2, 3, 8, 64, -1} {
		multi, err := Compute(context.Background(), cols, cands, Options{Workers: w})
		require.NoError(t, err)
		assert.True(t, single.Equal(multi), "workers=%d", w)
	}

	rows, c := single.Dims()
	assert.Equal(t, 37, rows)
	assert.Equal(t, 11, c)
	assert.Equal(t, "0", single.Columns()[0])
	assert.Equal(t, "36", single.Columns()[36])
	assert.Equal(t, cands.Names(), single.Candidates())

	for i, col := range cols {
		for j, name := range cands.Names() {
			cand, _ := cands.Get(name)
			want, err := Distance(col, cand)
			require.NoError(t, err)
			assert.Equal(t, want, single.At(i, j))
		}
	}
}

func TestComputeEmptyOverlapIsInf(t *testing.T) {
	cols := []*series.Series{seq("0", 0, 10, func(int) float64 { return 1 })}
	cands := series.NewCollection(
		seq("near", 0, 10, func(int) float64 { return 1 }),
		seq("far", 1000, 10, func(int) float64 { return 1 }),
	)

	m, err := Compute(context.Background(), cols, cands, Options{Workers: 2})
	require.NoError(t, err)
	assert.Zero(t, m.At(0, 0))
	assert.True(t, math.IsInf(m.At(0, 1), 1))
	assert.Equal(t, 1, m.EmptyPairs())
}

func TestComputeReportsProgress(t *testing.T) {
	cols, cands := randomInputs(9, 3)
	var c progress.Counter

	_, err := Compute(context.Background(), cols, cands, Options{Workers: 4, Progress: &c})
	require.NoError(t, err)

	total, count, done := c.Snapshot()
	assert.Equal(t, 9, total)
	assert.Equal(t, 9, count)
	assert.True(t, done)
}

func TestComputeEmptyInput(t *testing.T) {
	_, cands := randomInputs(1, 2)
	_, err := Compute(context.Background(), nil, cands, Options{})
	assert.Error(t, err)

	cols, _ := randomInputs(2, 1)
	_, err = Compute(context.Background(), cols, series.NewCollection(), Options{})
	assert.Error(t, err)
}

func TestComputeCancelled(t *testing.T) {
	cols, cands := randomInputs(5, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compute(ctx, cols, cands, Options{Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMatrixValidation(t *testing.T) {
	_, err := NewMatrix([]string{"0"}, []string{"A", "B"}, [][]float64{{1}})
	assert.Error(t, err)

	_, err = NewMatrix([]string{"0", "1"}, []string{"A"}, [][]float64{{1}})
	assert.Error(t, err)

	m, err := NewMatrix([]string{"0"}, []string{"A", "B"}, [][]float64{{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, m.Row(0))
}
