// Package series holds the time-indexed signals a header is built from and
// the alignment helpers used before signals are compared.
package series

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// ErrLengthMismatch is returned when timestamps and values differ in length.
var ErrLengthMismatch = errors.New("timestamps and values differ in length")

// Series is a named single-channel signal. After Align its timestamps are
// strictly increasing.
type Series struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// New builds a series from parallel slices.
func New(name string, times []time.Time, values []float64) (*Series, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("%s: %w (%d != %d)", name, ErrLengthMismatch, len(times), len(values))
	}
	return &Series{Name: name, Times: times, Values: values}, nil
}

// FromEpochs builds a series from epoch seconds, converting each timestamp
// into loc.
func FromEpochs(name string, epochs []float64, values []float64, loc *time.Location) (*Series, error) {
	if len(epochs) != len(values) {
		return nil, fmt.Errorf("%s: %w (%d != %d)", name, ErrLengthMismatch, len(epochs), len(values))
	}
	times := make([]time.Time, len(epochs))
	for i, e := range epochs {
		times[i] = timeutil.EpochToTime(e, loc)
	}
	return &Series{Name: name, Times: times, Values: values}, nil
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.Times)
}

// Align rounds every timestamp to the nearest multiple of resolution and
// returns a new series ordered by time. Samples that round onto the same
// timestamp collapse into one and the latest of them wins.
func (s *Series) Align(resolution time.Duration) *Series {
	n := len(s.Times)
	idx := make([]int, n)
	rounded := make([]time.Time, n)
	for i := range s.Times {
		idx[i] = i
		rounded[i] = timeutil.Round(s.Times[i], resolution)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rounded[idx[a]].Before(rounded[idx[b]])
	})

	out := &Series{
		Name:   s.Name,
		Times:  make([]time.Time, 0, n),
		Values: make([]float64, 0, n),
	}
	for _, i := range idx {
		last := len(out.Times) - 1
		if last >= 0 && out.Times[last].Equal(rounded[i]) {
			out.Values[last] = s.Values[i]
			continue
		}
		out.Times = append(out.Times, rounded[i])
		out.Values = append(out.Values, s.Values[i])
	}
	return out
}

// Keys returns the timestamps as Unix nanoseconds, the form the distance
// engine merges on.
func (s *Series) Keys() []int64 {
	keys := make([]int64, len(s.Times))
	for i, t := range s.Times {
		keys[i] = t.UnixNano()
	}
	return keys
}

// Diff is one row of an outer-joined difference. Value is NaN when only one
// of the two series has a sample at Time.
type Diff struct {
	Time  time.Time
	Value float64
}

// Defined reports whether both sides contributed to the row.
func (d Diff) Defined() bool {
	return !math.IsNaN(d.Value)
}

// Difference subtracts b from a over the union of their timestamps. Both
// series must be aligned. Rows present on one side only carry NaN.
func Difference(a, b *Series) []Diff {
	out := make([]Diff, 0, max(a.Len(), b.Len()))
	i, j := 0, 0
	for i < a.Len() || j < b.Len() {
		switch {
		case j >= b.Len() || (i < a.Len() && a.Times[i].Before(b.Times[j])):
			out = append(out, Diff{Time: a.Times[i], Value: math.NaN()})
			i++
		case i >= a.Len() || b.Times[j].Before(a.Times[i]):
			out = append(out, Diff{Time: b.Times[j], Value: math.NaN()})
			j++
		default:
			out = append(out, Diff{Time: a.Times[i], Value: a.Values[i] - b.Values[j]})
			i++
			j++
		}
	}
	return out
}

// MeanAbs returns the mean absolute value of the defined rows of a
// difference and how many rows contributed. Undefined rows are skipped.
func MeanAbs(diffs []Diff) (float64, int) {
	abs := make([]float64, 0, len(diffs))
	for _, d := range diffs {
		if d.Defined() {
			abs = append(abs, math.Abs(d.Value))
		}
	}
	if len(abs) == 0 {
		return math.NaN(), 0
	}
	return stat.Mean(abs, nil), len(abs)
}
