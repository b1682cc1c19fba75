// Package progress reports the advance of long running phases (candidate
// fetching, distance matrix computation). The matching code only sees the
// Reporter interface and defaults to Nop.
package progress

import (
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Reporter starts a tracker for a phase made of total steps.
type Reporter interface {
	Start(description string, total int) Tracker
}

// Tracker receives step completions. Implementations must be safe for
// concurrent use since workers report from their own goroutines.
type Tracker interface {
	Add(n int)
	Done()
}

// Nop returns a Reporter that does nothing.
func Nop() Reporter {
	return nopReporter{}
}

type nopReporter struct{}

func (nopReporter) Start(string, int) Tracker { return nopTracker{} }

type nopTracker struct{}

func (nopTracker) Add(int) {}
func (nopTracker) Done()   {}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ForFile returns a bar reporter writing to f when f is a terminal and Nop
// otherwise, so redirected output stays free of control sequences.
func ForFile(f *os.File) Reporter {
	if f == nil || !IsTerminal(f) {
		return Nop()
	}
	return &BarReporter{out: f}
}

// BarReporter draws one progress bar per phase.
type BarReporter struct {
	out *os.File
}

// Start implements Reporter.
func (r *BarReporter) Start(description string, total int) Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &barTracker{bar: bar}
}

type barTracker struct {
	bar  *progressbar.ProgressBar
	once sync.Once
}

func (t *barTracker) Add(n int) {
	_ = t.bar.Add(n)
}

func (t *barTracker) Done() {
	t.once.Do(func() {
		_ = t.bar.Finish()
	})
}

// Counter is a Tracker that only counts. Tests use it to check that every
// step is reported.
type Counter struct {
	mu    sync.Mutex
	total int
	count int
	done  bool
}

// Start implements Reporter by resetting the counter.
func (c *Counter) Start(_ string, total int) Tracker {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = total
	c.count = 0
	c.done = false
	return c
}

// Add implements Tracker.
func (c *Counter) Add(n int) {
	c.mu.Lock()
	c.count += n
	c.mu.Unlock()
}

// Done implements Tracker.
func (c *Counter) Done() {
	c.mu.Lock()
	c.done = true
	c.mu.Unlock()
}

// Snapshot returns the expected total, the steps counted and whether Done
// was called.
func (c *Counter) Snapshot() (total, count int, done bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, c.count, c.done
}
