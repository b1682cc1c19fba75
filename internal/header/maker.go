package header

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chrissnell/blmheader/internal/datasource"
	"github.com/chrissnell/blmheader/internal/distance"
	"github.com/chrissnell/blmheader/internal/progress"
	"github.com/chrissnell/blmheader/internal/series"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// ErrEmptyInput is returned when there is nothing to match: no vector
// samples, no vector columns or no candidate with data.
var ErrEmptyInput = errors.New("nothing to match")

const (
	DefaultVectorVariable   = "LHC.BLMI:LOSS_RS09"
	DefaultCandidatePattern = "BLM%:LOSS_RS09"
	DefaultResolution       = time.Second
)

// Maker builds the header of a vector signal for one time window.
type Maker struct {
	requested time.Time
	window    timeutil.Window
	source    datasource.Source
	logger    *zap.SugaredLogger

	jobs             int
	threads          int
	vectorVariable   string
	candidatePattern string
	candidateFilter  *regexp.Regexp
	candidates       []string
	resolution       time.Duration
	location         *time.Location
	progress         progress.Reporter
	minSpan          time.Duration
}

// Option configures a Maker.
type Option func(*Maker)

// WithJobs sets the number of distance workers. Zero or less uses every CPU.
func WithJobs(n int) Option {
	return func(m *Maker) { m.jobs = n }
}

// WithThreads sets how many candidate fetches run at once. One or less
// fetches every candidate in a single request.
func WithThreads(n int) Option {
	return func(m *Maker) { m.threads = n }
}

// WithVectorVariable sets the vector signal to build the header of.
func WithVectorVariable(name string) Option {
	return func(m *Maker) { m.vectorVariable = name }
}

// WithCandidatePattern sets the search pattern used to list candidates.
func WithCandidatePattern(pattern string) Option {
	return func(m *Maker) { m.candidatePattern = pattern }
}

// WithCandidateFilter keeps only searched names matching re.
func WithCandidateFilter(re *regexp.Regexp) Option {
	return func(m *Maker) { m.candidateFilter = re }
}

// WithCandidates fixes the candidate names, skipping the search.
func WithCandidates(names ...string) Option {
	return func(m *Maker) { m.candidates = names }
}

// WithResolution sets the grid timestamps are rounded to before comparing.
func WithResolution(d time.Duration) Option {
	return func(m *Maker) { m.resolution = d }
}

// WithLocation sets the location fetched timestamps are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(m *Maker) { m.location = loc }
}

// WithProgress reports fetch and distance progress to r.
func WithProgress(r progress.Reporter) Option {
	return func(m *Maker) { m.progress = r }
}

// WithMinSpan sets the narrowest range a failing fetch is still split into.
func WithMinSpan(d time.Duration) Option {
	return func(m *Maker) { m.minSpan = d }
}

// NewMaker returns a Maker for requested, matching over window with data
// from source. Every fetch goes through datasource.NoLimit.
func NewMaker(requested time.Time, window timeutil.Window, source datasource.Source, logger *zap.SugaredLogger, opts ...Option) *Maker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	m := &Maker{
		requested:        requested,
		window:           window,
		logger:           logger.With("component", "header"),
		jobs:             -1,
		threads:          1,
		vectorVariable:   DefaultVectorVariable,
		candidatePattern: DefaultCandidatePattern,
		resolution:       DefaultResolution,
		location:         requested.Location(),
		progress:         progress.Nop(),
		minSpan:          datasource.DefaultMinSpan,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.source = datasource.NoLimit(source, m.minSpan, m.logger)

	m.logger.Infof("requested time: %s", m.requested.Format(time.RFC3339))
	m.logger.Infof("using data in range %s for matching", m.window)
	return m
}

// Requested returns the requested instant.
func (m *Maker) Requested() time.Time {
	return m.requested
}

// Window returns the matching window.
func (m *Maker) Window() timeutil.Window {
	return m.window
}

// FetchVector fetches the vector signal over the window.
func (m *Maker) FetchVector(ctx context.Context) (*series.Matrix, error) {
	m.logger.Infof("fetching vector data %s", m.vectorVariable)

	data, err := m.source.Get(ctx, []string{m.vectorVariable}, m.window)
	if err != nil {
		return nil, fmt.Errorf("error fetching vector data %s: %w", m.vectorVariable, err)
	}
	smp := data[m.vectorVariable]
	if smp.Len() == 0 {
		return nil, fmt.Errorf("%w: no %s data in %s", ErrEmptyInput, m.vectorVariable, m.window)
	}

	vec, err := series.NewMatrixFromEpochs(m.vectorVariable, smp.Timestamps, smp.Values, m.location)
	if err != nil {
		return nil, err
	}
	m.logger.Infof("vector data shape: %d samples x %d columns", vec.Samples(), vec.Width())
	return vec, nil
}

// FetchCandidates fetches the candidate signals over the window. Without
// names it uses the names given by WithCandidates or, failing that, searches
// the source. Candidates are keyed by their name up to the first colon and
// kept in the order they were listed; candidates without data are dropped.
func (m *Maker) FetchCandidates(ctx context.Context, names ...string) (*series.Collection, error) {
	if len(names) == 0 {
		names = m.candidates
	}
	if len(names) == 0 {
		var err error
		if names, err = m.searchCandidates(ctx); err != nil {
			return nil, err
		}
	}
	m.logger.Infof("fetching %d candidate signals", len(names))
	if m.threads > 1 {
		m.logger.Debugf("using %d fetch threads", m.threads)
	}

	tracker := m.progress.Start("Fetching BLM data", len(names))
	data, err := datasource.FetchAll(ctx, m.source, names, m.window, m.threads, tracker)
	if err != nil {
		return nil, err
	}

	cands := series.NewCollection()
	for _, name := range names {
		smp := data[name]
		if smp.Len() == 0 {
			m.logger.Debugf("signal %s has no data", name)
			continue
		}
		s, err := series.FromEpochs(datasource.BaseName(name), smp.Timestamps, smp.Scalar(), m.location)
		if err != nil {
			return nil, err
		}
		cands.Add(s)
	}
	m.logger.Infof("number of candidate signals: %d", cands.Len())
	return cands, nil
}

func (m *Maker) searchCandidates(ctx context.Context) ([]string, error) {
	names, err := m.source.Search(ctx, m.candidatePattern)
	if err != nil {
		return nil, fmt.Errorf("error listing candidates: %w", err)
	}
	if m.candidateFilter != nil {
		kept := names[:0:0]
		for _, n := range names {
			if m.candidateFilter.MatchString(n) {
				kept = append(kept, n)
			}
		}
		names = kept
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no candidate passed the filters (pattern %q, filter %v)", datasource.ErrNoMatches, m.candidatePattern, m.candidateFilter)
	}
	return names, nil
}

// Result is the outcome of one header build.
type Result struct {
	RunID      string
	Requested  time.Time
	Window     timeutil.Window
	Header     Header
	Matches    []Match
	Duplicates []Duplicate
	// EmptyPairs counts column/candidate pairs without a common timestamp.
	EmptyPairs int
	Elapsed    time.Duration
}

// Build computes the header. A nil vec or cands is fetched first; supplied
// ones are used as they are apart from timestamp alignment.
func (m *Maker) Build(ctx context.Context, vec *series.Matrix, cands *series.Collection) (*Result, error) {
	runID := uuid.New().String()
	logger := m.logger.With("run_id", runID)
	start := time.Now()

	var err error
	if vec == nil {
		if vec, err = m.FetchVector(ctx); err != nil {
			return nil, err
		}
	}
	if cands == nil {
		if cands, err = m.FetchCandidates(ctx); err != nil {
			return nil, err
		}
	}
	if vec.Samples() == 0 || vec.Width() == 0 {
		return nil, fmt.Errorf("%w: vector signal %s has no data in %s", ErrEmptyInput, vec.Name, m.window)
	}
	if cands.Len() == 0 {
		return nil, fmt.Errorf("%w: no candidate signal has data in %s", ErrEmptyInput, m.window)
	}

	columns := vec.Columns(m.resolution)
	aligned := series.NewCollection()
	for _, s := range cands.Series() {
		aligned.Add(s.Align(m.resolution))
	}

	logger.Info("constructing distance matrix, this will take a while")
	dm, err := distance.Compute(ctx, columns, aligned, distance.Options{
		Workers:  m.jobs,
		Progress: m.progress,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	matches := Assign(dm)
	h := make(Header, len(matches))
	for i, mt := range matches {
		h[i] = mt.Name
		if mt.Name == Unmatched {
			logger.Warnf("column %d shares no timestamp with any candidate", i)
		}
	}

	res := &Result{
		RunID:      runID,
		Requested:  m.requested,
		Window:     m.window,
		Header:     h,
		Matches:    matches,
		Duplicates: Duplicates(h),
		EmptyPairs: dm.EmptyPairs(),
		Elapsed:    time.Since(start),
	}
	logger.Infof("header of %d columns built in %s", len(h), res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// MakeHeader fetches everything and returns the header.
func (m *Maker) MakeHeader(ctx context.Context) (Header, error) {
	res, err := m.Build(ctx, nil, nil)
	if err != nil {
		return nil, err
	}
	return res.Header, nil
}
