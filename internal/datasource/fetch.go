package datasource

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/blmheader/internal/progress"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// FetchAll gets every name over w. With threads <= 1 it issues a single
// bulk Get; otherwise up to threads single-name Gets run at once. Names must
// be unique. The first failure cancels the remaining fetches.
func FetchAll(ctx context.Context, src Source, names []string, w timeutil.Window, threads int, tracker progress.Tracker) (map[string]*Samples, error) {
	if tracker == nil {
		tracker = progress.Nop().Start("", 0)
	}
	defer tracker.Done()

	if threads <= 1 {
		out, err := src.Get(ctx, names, w)
		if err != nil {
			return nil, windowError(err, names, w)
		}
		tracker.Add(len(names))
		return complete(names, out), nil
	}

	var mu sync.Mutex
	out := make(map[string]*Samples, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for _, name := range names {
		name := name
		g.Go(func() error {
			got, err := src.Get(gctx, []string{name}, w)
			if err != nil {
				return windowError(err, []string{name}, w)
			}
			mu.Lock()
			for k, v := range got {
				out[k] = v
			}
			mu.Unlock()
			tracker.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return complete(names, out), nil
}
