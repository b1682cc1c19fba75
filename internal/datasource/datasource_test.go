package datasource

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/blmheader/internal/progress"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

func window(start, end float64) timeutil.Window {
	return timeutil.Window{
		Start: timeutil.EpochToTime(start, time.UTC),
		End:   timeutil.EpochToTime(end, time.UTC),
	}
}

func ramp(from, to int, scale float64) *Samples {
	s := &Samples{}
	for i := from; i <= to; i++ {
		s.Timestamps = append(s.Timestamps, float64(i))
		s.Values = append(s.Values, []float64{float64(i) * scale, -float64(i)})
	}
	return s
}

func TestBaseName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"BLMQI.01L1.B1I10_MQXA:LOSS_RS09", "BLMQI.01L1.B1I10_MQXA"},
		{"NO_COLON", "NO_COLON"},
		{"A:B:C", "A"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseName(tt.in))
	}
}

func TestSQLLike(t *testing.T) {
	assert.Equal(t, `BLM%:LOSS\_RS09`, SQLLike("BLM%:LOSS_RS09"))
	assert.Equal(t, `BLM%:LOSS\_RS09`, SQLLike("BLM*:LOSS_RS09"))
	assert.Equal(t, `a\\b`, SQLLike(`a\b`))
}

func TestPatternRegexp(t *testing.T) {
	re, err := PatternRegexp("BLM%:LOSS_RS09")
	require.NoError(t, err)

	assert.True(t, re.MatchString("BLMQI.01L1.B1I10_MQXA:LOSS_RS09"))
	assert.True(t, re.MatchString("BLM:LOSS_RS09"))
	assert.False(t, re.MatchString("BLMQI.01L1:LOSS_RS10"))
	assert.False(t, re.MatchString("XBLM.A:LOSS_RS09"))

	re, err = PatternRegexp("a.b*")
	require.NoError(t, err)
	assert.True(t, re.MatchString("a.bcd"))
	assert.False(t, re.MatchString("axbcd"))
}

func TestVectorCodec(t *testing.T) {
	in := []float64{0, 1.5, -2.25, 1e-9}
	b, err := EncodeVector(in)
	require.NoError(t, err)

	out, err := DecodeVector(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	v := 3.5
	row, err := Row(&v, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5}, row)

	row, err = Row(&v, b)
	require.NoError(t, err)
	assert.Equal(t, in, row)

	row, err = Row(nil, nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(row[0]))

	value, vector, err := Split([]float64{3.5}, false)
	require.NoError(t, err)
	assert.Equal(t, 3.5, *value)
	assert.Nil(t, vector)

	value, vector, err = Split(in, true)
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Equal(t, b, vector)

	_, err = DecodeVector([]byte{0xc1})
	assert.Error(t, err)
}

func TestSamplesAppendDropsSharedBoundary(t *testing.T) {
	left := ramp(0, 5, 1)
	left.Append(ramp(5, 9, 1))
	assert.Equal(t, ramp(0, 9, 1), left)

	empty := &Samples{}
	empty.Append(ramp(2, 3, 1))
	assert.Equal(t, 2, empty.Len())

	var nilSamples *Samples
	assert.Zero(t, nilSamples.Len())
}

func TestSamplesScalar(t *testing.T) {
	s := &Samples{Timestamps: []float64{1, 2}, Values: [][]float64{{4, 5}, {}}}
	got := s.Scalar()
	assert.Equal(t, 4.0, got[0])
	assert.True(t, math.IsNaN(got[1]))
}

func TestMemorySearch(t *testing.T) {
	m := NewMemory()
	m.Put("BLM.B:LOSS_RS09", ramp(0, 1, 1))
	m.Put("BLM.A:LOSS_RS09", ramp(0, 1, 1))
	m.Put("OTHER:LOSS_RS09", ramp(0, 1, 1))

	names, err := m.Search(context.Background(), "BLM%:LOSS_RS09")
	require.NoError(t, err)
	assert.Equal(t, []string{"BLM.A:LOSS_RS09", "BLM.B:LOSS_RS09"}, names)

	_, err = m.Search(context.Background(), "NOPE%")
	assert.ErrorIs(t, err, ErrNoMatches)
}

func TestMemoryGetInclusiveRange(t *testing.T) {
	m := NewMemory()
	m.Put("A", ramp(0, 10, 1))

	got, err := m.Get(context.Background(), []string{"A", "missing"}, window(2, 4))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, got["A"].Timestamps)
	assert.Zero(t, got["missing"].Len())

	m.MaxRows = 2
	_, err = m.Get(context.Background(), []string{"A"}, window(2, 4))
	assert.ErrorIs(t, err, ErrQueryLimit)
}

func TestNoLimitMatchesSingleFetch(t *testing.T) {
	m := NewMemory()
	m.Put("A", ramp(0, 100, 2))
	m.Put("B", ramp(40, 60, 3))
	names := []string{"A", "B", "C"}
	w := window(0, 100)

	want, err := m.Get(context.Background(), names, w)
	require.NoError(t, err)

	m.MaxRows = 30
	_, err = m.Get(context.Background(), names, w)
	require.ErrorIs(t, err, ErrQueryLimit)

	before := m.Gets()
	got, err := NoLimit(m, time.Second, nil).Get(context.Background(), names, w)
	require.NoError(t, err)
	assert.Greater(t, m.Gets()-before, 3)

	for _, n := range names {
		assert.Equal(t, want[n].Timestamps, got[n].Timestamps, n)
		assert.Equal(t, want[n].Values, got[n].Values, n)
	}
}

// failOnce fails the first Get over the full range and serves the rest.
type failOnce struct {
	*Memory
	full   timeutil.Window
	failed atomic.Bool
}

func (f *failOnce) Get(ctx context.Context, names []string, w timeutil.Window) (map[string]*Samples, error) {
	if w == f.full && f.failed.CompareAndSwap(false, true) {
		return nil, errors.New("backend hiccup")
	}
	return f.Memory.Get(ctx, names, w)
}

func TestNoLimitSingleSplit(t *testing.T) {
	m := NewMemory()
	m.Put("A", ramp(0, 10, 1))
	w := window(0, 10)
	src := &failOnce{Memory: m, full: w}

	got, err := NoLimit(src, 0, nil).Get(context.Background(), []string{"A"}, w)
	require.NoError(t, err)
	assert.Equal(t, ramp(0, 10, 1), got["A"])
	assert.Equal(t, 2, m.Gets())
}

// broken fails every Get with err.
type broken struct{ err error }

func (b broken) Search(context.Context, string) ([]string, error) {
	return nil, b.err
}

func (b broken) Get(context.Context, []string, timeutil.Window) (map[string]*Samples, error) {
	return nil, b.err
}

var alwaysFail = broken{err: errors.New("permanently broken")}

func TestNoLimitRangeTooNarrow(t *testing.T) {
	_, err := NoLimit(alwaysFail, 10*time.Second, nil).Get(context.Background(), []string{"A"}, window(0, 60))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRangeTooNarrow)
	assert.Contains(t, err.Error(), "permanently broken")
}

func TestNoLimitDoesNotRetryCancellation(t *testing.T) {
	_, err := NoLimit(broken{err: fmt.Errorf("query: %w", context.Canceled)}, time.Second, nil).Get(context.Background(), []string{"A"}, window(0, 600))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrRangeTooNarrow)
}

func TestFetchAll(t *testing.T) {
	m := NewMemory()
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("S%02d", i)
		m.Put(names[i], ramp(0, i, 1))
	}
	w := window(0, 100)

	for _, threads := range []int{0, 1, 4, 32} {
		var c progress.Counter
		got, err := FetchAll(context.Background(), m, append(names, "absent"), w, threads, c.Start("fetch", len(names)+1))
		require.NoError(t, err, "threads=%d", threads)
		require.Len(t, got, 21)
		for i, n := range names {
			assert.Equal(t, i+1, got[n].Len())
		}
		assert.Zero(t, got["absent"].Len())

		_, count, done := c.Snapshot()
		assert.Equal(t, 21, count)
		assert.True(t, done)
	}
}

func TestFetchAllPropagatesError(t *testing.T) {
	_, err := FetchAll(context.Background(), alwaysFail, []string{"A", "B"}, window(0, 1), 2, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permanently broken")
}
