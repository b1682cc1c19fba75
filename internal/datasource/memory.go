package datasource

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// Memory is a Source over samples held in memory. It backs tests and lets
// callers compose already fetched data with the rest of the pipeline.
type Memory struct {
	// MaxRows, when positive, makes Get fail with ErrQueryLimit once a
	// request would return more rows in total.
	MaxRows int

	mu   sync.RWMutex
	data map[string]*Samples
	gets int
}

// NewMemory returns an empty Memory source.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]*Samples)}
}

// Put stores the samples of name, replacing any previous ones.
func (m *Memory) Put(name string, s *Samples) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = s
}

// Gets returns how many Get calls were served or refused.
func (m *Memory) Gets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets
}

// Search implements Source. Names come back sorted.
func (m *Memory) Search(ctx context.Context, pattern string) ([]string, error) {
	re, err := PatternRegexp(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", pattern, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.data {
		if re.MatchString(name) {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatches, pattern)
	}
	sort.Strings(names)
	return names, nil
}

// Get implements Source.
func (m *Memory) Get(ctx context.Context, names []string, w timeutil.Window) (map[string]*Samples, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.gets++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	lo, hi := timeutil.TimeToEpoch(w.Start), timeutil.TimeToEpoch(w.End)
	out := make(map[string]*Samples, len(names))
	rows := 0
	for _, name := range names {
		s := &Samples{}
		if src, ok := m.data[name]; ok {
			for i, ts := range src.Timestamps {
				if ts < lo || ts > hi {
					continue
				}
				s.Timestamps = append(s.Timestamps, ts)
				s.Values = append(s.Values, src.Values[i])
			}
		}
		rows += s.Len()
		out[name] = s
	}
	if m.MaxRows > 0 && rows > m.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrQueryLimit, rows, m.MaxRows)
	}
	return out, nil
}
