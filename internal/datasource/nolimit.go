package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// DefaultMinSpan is the narrowest range NoLimit will still split.
const DefaultMinSpan = time.Second

// Bisecting wraps a Source and retries failed fetches on the two halves of
// the range, recursively, until they succeed.
type Bisecting struct {
	src     Source
	minSpan time.Duration
	logger  *zap.SugaredLogger
}

// NoLimit returns src wrapped so that Get survives backend size limits. A
// failing range is split at its midpoint and the halves are fetched and
// concatenated. Once a failing range is narrower than minSpan the fetch
// fails with ErrRangeTooNarrow joined with the backend error. Context errors
// are never retried.
func NoLimit(src Source, minSpan time.Duration, logger *zap.SugaredLogger) *Bisecting {
	if minSpan <= 0 {
		minSpan = DefaultMinSpan
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Bisecting{src: src, minSpan: minSpan, logger: logger}
}

// Search implements Source.
func (b *Bisecting) Search(ctx context.Context, pattern string) ([]string, error) {
	return b.src.Search(ctx, pattern)
}

// Get implements Source.
func (b *Bisecting) Get(ctx context.Context, names []string, w timeutil.Window) (map[string]*Samples, error) {
	return b.get(ctx, names, w, 0)
}

func (b *Bisecting) get(ctx context.Context, names []string, w timeutil.Window, depth int) (map[string]*Samples, error) {
	out, err := b.src.Get(ctx, names, w)
	if err == nil {
		return complete(names, out), nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if w.Duration() < b.minSpan {
		return nil, errors.Join(
			fmt.Errorf("%w: %s is shorter than %s", ErrRangeTooNarrow, w, b.minSpan),
			windowError(err, names, w),
		)
	}

	mid := w.Midpoint()
	b.logger.Debugf("fetch over %s failed (%v), splitting at %s (depth %d)", w, err, mid.Format(time.RFC3339), depth+1)

	left, err := b.get(ctx, names, timeutil.Window{Start: w.Start, End: mid}, depth+1)
	if err != nil {
		return nil, err
	}
	right, err := b.get(ctx, names, timeutil.Window{Start: mid, End: w.End}, depth+1)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		left[n].Append(right[n])
	}
	return left, nil
}
