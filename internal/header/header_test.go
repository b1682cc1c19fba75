package header

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/blmheader/internal/datasource"
	"github.com/chrissnell/blmheader/internal/distance"
	"github.com/chrissnell/blmheader/internal/progress"
	"github.com/chrissnell/blmheader/internal/series"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

var inf = math.Inf(1)

func mustMatrix(t *testing.T, rows [][]float64, candidates ...string) *distance.Matrix {
	t.Helper()
	cols := make([]string, len(rows))
	for i := range cols {
		cols[i] = fmt.Sprint(i)
	}
	m, err := distance.NewMatrix(cols, candidates, rows)
	require.NoError(t, err)
	return m
}

func TestReduce(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
		want Header
	}{
		{
			name: "unique minimum",
			rows: [][]float64{{3, 0.1, 2}, {0.5, 4, 1}},
			want: Header{"B", "A"},
		},
		{
			name: "tie goes to first candidate",
			rows: [][]float64{{1, 1, 1}, {2, 0, 0}},
			want: Header{"A", "B"},
		},
		{
			name: "duplicates kept",
			rows: [][]float64{{0, 1, 2}, {5, 9, 9}},
			want: Header{"A", "A"},
		},
		{
			name: "no overlap anywhere",
			rows: [][]float64{{inf, inf, inf}, {inf, 7, inf}},
			want: Header{Unmatched, "B"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(mustMatrix(t, tt.rows, "A", "B", "C")))
		})
	}
}

func TestAssignRunnerUp(t *testing.T) {
	matches := Assign(mustMatrix(t, [][]float64{{3, 0.5, 1}}, "A", "B", "C"))
	require.Len(t, matches, 1)
	assert.Equal(t, Match{Column: 0, Name: "B", Distance: 0.5, RunnerUp: "C", RunnerUpDistance: 1}, matches[0])
	assert.InDelta(t, 0.5, matches[0].Margin(), 1e-12)

	single := Assign(mustMatrix(t, [][]float64{{2}}, "A"))
	assert.Equal(t, "", single[0].RunnerUp)
	assert.True(t, math.IsInf(single[0].RunnerUpDistance, 1))
}

func TestDuplicates(t *testing.T) {
	assert.Equal(t, []Duplicate{{Name: "A", Positions: []int{0, 2}}}, Duplicates(Header{"A", "B", "A"}))
	assert.Equal(t,
		[]Duplicate{{Name: "B", Positions: []int{0, 3}}, {Name: "A", Positions: []int{1, 2, 4}}},
		Duplicates(Header{"B", "A", "A", "B", "A", "C"}))
	assert.Empty(t, Duplicates(Header{"A", "B", "C"}))
	assert.Empty(t, Duplicates(Header{Unmatched, "A", Unmatched}))
}

var t0 = time.Date(2018, 6, 1, 12, 0, 0, 0, time.UTC)

func testWindow() timeutil.Window {
	return timeutil.Window{Start: t0, End: t0.Add(10 * time.Minute)}
}

// fixture builds a vector signal whose column 0 follows candidate X and
// column 1 follows candidate Y, with sub-second jitter on the vector clock.
func fixture() (*datasource.Memory, []string) {
	r := rand.New(rand.NewSource(7))
	base := timeutil.TimeToEpoch(t0)
	n := 300

	x := make([]float64, n)
	y := make([]float64, n)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = math.Sin(float64(i) / 10)
		y[i] = float64(i%17) / 3
		z[i] = r.Float64() * 5
	}

	src := datasource.NewMemory()
	vec := &datasource.Samples{}
	for i := 0; i < n; i++ {
		jitter := (r.Float64() - 0.5) * 0.6
		vec.Timestamps = append(vec.Timestamps, base+float64(i)+jitter)
		vec.Values = append(vec.Values, []float64{x[i] + 1e-3*r.Float64(), y[i] + 1e-3*r.Float64()})
	}
	src.Put(DefaultVectorVariable, vec)

	for name, values := range map[string][]float64{"X": x, "Y": y, "Z": z} {
		smp := &datasource.Samples{}
		for i, v := range values {
			smp.Timestamps = append(smp.Timestamps, base+float64(i))
			smp.Values = append(smp.Values, []float64{v})
		}
		src.Put("BLM."+name+":LOSS_RS09", smp)
	}
	src.Put("BLM.EMPTY:LOSS_RS09", &datasource.Samples{})
	return src, []string{"BLM.X:LOSS_RS09", "BLM.Y:LOSS_RS09", "BLM.Z:LOSS_RS09"}
}

func TestMakeHeaderEndToEnd(t *testing.T) {
	src, _ := fixture()

	for _, jobs := range []int{1, 2, -1} {
		for _, threads := range []int{1, 4} {
			m := NewMaker(t0, testWindow(), src, nil, WithJobs(jobs), WithThreads(threads))
			h, err := m.MakeHeader(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Header{"BLM.X", "BLM.Y"}, h, "jobs=%d threads=%d", jobs, threads)
		}
	}
}

func TestBuildWithSuppliedData(t *testing.T) {
	mk := func(name string, values ...float64) *series.Series {
		s := &series.Series{Name: name}
		for i, v := range values {
			s.Times = append(s.Times, t0.Add(time.Duration(i)*time.Second+200*time.Millisecond))
			s.Values = append(s.Values, v)
		}
		return s
	}
	vec := &series.Matrix{Name: "vec"}
	for i, row := range [][]float64{{1, 10}, {2, 20}, {3, 30}} {
		vec.Times = append(vec.Times, t0.Add(time.Duration(i)*time.Second))
		vec.Rows = append(vec.Rows, row)
	}
	cands := series.NewCollection(
		mk("W", 100, 100, 100),
		mk("X", 1, 2, 3.01),
		mk("Y", 10, 20, 30),
	)

	var c progress.Counter
	m := NewMaker(t0, testWindow(), datasource.NewMemory(), nil, WithProgress(&c), WithJobs(2))
	res, err := m.Build(context.Background(), vec, cands)
	require.NoError(t, err)

	assert.Equal(t, Header{"X", "Y"}, res.Header)
	assert.Empty(t, res.Duplicates)
	assert.Zero(t, res.EmptyPairs)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, t0, res.Requested)
	assert.Equal(t, testWindow(), res.Window)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "Y", res.Matches[0].RunnerUp)

	_, count, done := c.Snapshot()
	assert.Equal(t, 2, count)
	assert.True(t, done)
}

func TestBuildEmptyInput(t *testing.T) {
	m := NewMaker(t0, testWindow(), datasource.NewMemory(), nil)
	cands := series.NewCollection(&series.Series{Name: "A", Times: []time.Time{t0}, Values: []float64{1}})

	_, err := m.Build(context.Background(), &series.Matrix{Name: "vec"}, cands)
	assert.ErrorIs(t, err, ErrEmptyInput)

	vec := &series.Matrix{Name: "vec", Times: []time.Time{t0}, Rows: [][]float64{{1}}}
	_, err = m.Build(context.Background(), vec, series.NewCollection())
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = m.Build(context.Background(), nil, cands)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestFetchCandidates(t *testing.T) {
	src, names := fixture()
	ctx := context.Background()

	m := NewMaker(t0, testWindow(), src, nil)
	cands, err := m.FetchCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BLM.X", "BLM.Y", "BLM.Z"}, cands.Names())

	m = NewMaker(t0, testWindow(), src, nil, WithCandidateFilter(regexp.MustCompile(`\.[YZ]:`)))
	cands, err = m.FetchCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BLM.Y", "BLM.Z"}, cands.Names())

	m = NewMaker(t0, testWindow(), src, nil, WithCandidates(names[2], names[0]))
	cands, err = m.FetchCandidates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BLM.Z", "BLM.X"}, cands.Names())

	m = NewMaker(t0, testWindow(), src, nil, WithCandidateFilter(regexp.MustCompile(`NOPE`)))
	_, err = m.FetchCandidates(ctx)
	assert.ErrorIs(t, err, datasource.ErrNoMatches)

	m = NewMaker(t0, testWindow(), src, nil, WithCandidatePattern("NOPE%"))
	_, err = m.FetchCandidates(ctx)
	assert.ErrorIs(t, err, datasource.ErrNoMatches)
}

func TestFetchVectorSurvivesQueryLimit(t *testing.T) {
	src, _ := fixture()
	want, err := src.Get(context.Background(), []string{DefaultVectorVariable}, testWindow())
	require.NoError(t, err)
	src.MaxRows = 50

	m := NewMaker(t0, testWindow(), src, nil)
	vec, err := m.FetchVector(context.Background())
	require.NoError(t, err)
	assert.Greater(t, want[DefaultVectorVariable].Len(), 50)
	assert.Equal(t, want[DefaultVectorVariable].Len(), vec.Samples())
	assert.Equal(t, 2, vec.Width())

	m = NewMaker(t0, testWindow(), src, nil, WithVectorVariable("MISSING"))
	_, err = m.FetchVector(context.Background())
	assert.ErrorIs(t, err, ErrEmptyInput)
}
