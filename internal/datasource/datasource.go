// Package datasource defines how signal data is looked up and fetched, plus
// the helpers every backend shares: range bisection for size-limited
// backends, a bounded fetch pool and the vector sample encoding.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chrissnell/blmheader/pkg/timeutil"
)

var (
	// ErrNoMatches is returned when a name lookup finds nothing.
	ErrNoMatches = errors.New("no signal matches")

	// ErrQueryLimit is returned by a backend that refuses to serve a range
	// because it holds too many rows.
	ErrQueryLimit = errors.New("query exceeds row limit")

	// ErrRangeTooNarrow is returned once bisection cannot shrink a failing
	// range any further.
	ErrRangeTooNarrow = errors.New("time range too narrow to split")
)

// Source looks up signal names and fetches their samples.
type Source interface {
	// Search returns the names matching pattern, where % and * match any
	// run of characters. It fails with ErrNoMatches when nothing matches.
	Search(ctx context.Context, pattern string) ([]string, error)

	// Get returns the samples of every name inside w, bounds included. A
	// name without data maps to empty Samples.
	Get(ctx context.Context, names []string, w timeutil.Window) (map[string]*Samples, error)
}

// Samples is the raw data of one signal: epoch second timestamps in
// increasing order and one row of values per timestamp. Scalar signals have
// rows of width one.
type Samples struct {
	Timestamps []float64
	Values     [][]float64
}

// Len returns the number of timestamps.
func (s *Samples) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Timestamps)
}

// Scalar returns the first value of every row. Empty rows give NaN.
func (s *Samples) Scalar() []float64 {
	out := make([]float64, len(s.Values))
	for i, row := range s.Values {
		if len(row) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = row[0]
	}
	return out
}

// Append adds the samples of o that come strictly after the last timestamp
// of s. Two adjacent closed ranges share their boundary sample, which is
// kept once.
func (s *Samples) Append(o *Samples) {
	if o == nil {
		return
	}
	start := 0
	if n := len(s.Timestamps); n > 0 {
		last := s.Timestamps[n-1]
		for start < len(o.Timestamps) && o.Timestamps[start] <= last {
			start++
		}
	}
	s.Timestamps = append(s.Timestamps, o.Timestamps[start:]...)
	s.Values = append(s.Values, o.Values[start:]...)
}

// BaseName shortens a signal name at its first colon, so
// "BLMQI.01L1.B1I10_MQXA:LOSS_RS09" becomes "BLMQI.01L1.B1I10_MQXA".
func BaseName(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}

// complete makes sure every requested name has an entry.
func complete(names []string, got map[string]*Samples) map[string]*Samples {
	if got == nil {
		got = make(map[string]*Samples, len(names))
	}
	for _, n := range names {
		if got[n] == nil {
			got[n] = &Samples{}
		}
	}
	return got
}

func windowError(err error, names []string, w timeutil.Window) error {
	return fmt.Errorf("fetching %d signal(s) over %s: %w", len(names), w, err)
}
