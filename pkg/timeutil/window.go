package timeutil

import (
	"fmt"
	"time"
)

// Window is a closed time range [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Duration returns the span of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Midpoint returns the instant halfway between Start and End.
func (w Window) Midpoint() time.Time {
	return w.Start.Add(w.Duration() / 2)
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s -> %s]", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// ResolveWindow returns the normalized requested time together with the
// window used for matching. When t2 is non-nil the window is [t, t2] and the
// look-back and look-forward strings are not consulted at all. Otherwise the
// window is [t - lookBack, t + lookForward].
func (n *Normalizer) ResolveWindow(t, t2 any, lookBack, lookForward string) (time.Time, Window, error) {
	requested, err := n.Normalize(t)
	if err != nil {
		return time.Time{}, Window{}, err
	}

	var w Window
	if t2 != nil {
		end, err := n.Normalize(t2)
		if err != nil {
			return time.Time{}, Window{}, err
		}
		w = Window{Start: requested, End: end}
	} else {
		back, err := ParseDuration(lookBack)
		if err != nil {
			return time.Time{}, Window{}, fmt.Errorf("look back: %w", err)
		}
		forward, err := ParseDuration(lookForward)
		if err != nil {
			return time.Time{}, Window{}, fmt.Errorf("look forward: %w", err)
		}
		w = Window{Start: requested.Add(-back), End: requested.Add(forward)}
	}

	if w.End.Before(w.Start) {
		return time.Time{}, Window{}, fmt.Errorf("%w: window end precedes start %s", ErrInvalidTimeFormat, w)
	}
	return requested, w, nil
}
