package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/blmheader/internal/header"
	"github.com/chrissnell/blmheader/internal/progress"
	"github.com/chrissnell/blmheader/pkg/config"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// Options are the per-run settings given on the command line.
type Options struct {
	// T is the requested instant, an epoch number or a date string.
	T string
	// T2, when set, ends the window and LookBack and LookForward are ignored.
	T2          string
	LookBack    string
	LookForward string
	Threads     int
	Jobs        int
	// Output is "stdout" or a file name template where {t} is replaced by
	// the requested instant.
	Output string
	Report bool
}

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger

	stdout   io.Writer
	stderr   io.Writer
	progress progress.Reporter
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		progress:       progress.ForFile(os.Stderr),
	}
}

// Run builds one header and writes it out.
func (a *App) Run(ctx context.Context, opts Options) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	norm, err := timeutil.NewNormalizer(cfg.Timezone)
	if err != nil {
		return err
	}
	var t2 any
	if opts.T2 != "" {
		t2 = opts.T2
	}
	requested, window, err := norm.ResolveWindow(opts.T, t2, opts.LookBack, opts.LookForward)
	if err != nil {
		return err
	}

	src, closeSource, err := OpenSource(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	defer closeSource()

	makerOpts, err := MakerOptions(cfg, opts)
	if err != nil {
		return err
	}
	makerOpts = append(makerOpts, header.WithLocation(norm.Location), header.WithProgress(a.progress))

	maker := header.NewMaker(requested, window, src, a.logger, makerOpts...)
	res, err := maker.Build(ctx, nil, nil)
	if err != nil {
		return err
	}

	WarnDuplicates(a.logger, res.Duplicates)

	out, err := OpenOutput(opts.Output, requested, a.stdout)
	if err != nil {
		return err
	}
	if err := WriteHeader(out, res.Header); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("could not close output: %w", err)
	}

	if opts.Report {
		fmt.Fprintln(a.stderr, RenderReport(res))
	}
	return nil
}

// MakerOptions turns the configuration and run options into header.Maker
// options.
func MakerOptions(cfg *config.ConfigData, opts Options) ([]header.Option, error) {
	resolution, err := cfg.ResolutionDuration()
	if err != nil {
		return nil, fmt.Errorf("resolution: %w", err)
	}
	minSpan, err := cfg.MinSpanDuration()
	if err != nil {
		return nil, fmt.Errorf("fetch min-span: %w", err)
	}
	filter, err := cfg.FilterRegexp()
	if err != nil {
		return nil, fmt.Errorf("candidates filter: %w", err)
	}

	out := []header.Option{
		header.WithJobs(opts.Jobs),
		header.WithThreads(opts.Threads),
		header.WithVectorVariable(cfg.Vector.Variable),
		header.WithCandidatePattern(cfg.Candidates.Pattern),
		header.WithResolution(resolution),
		header.WithMinSpan(minSpan),
	}
	if filter != nil {
		out = append(out, header.WithCandidateFilter(filter))
	}
	if len(cfg.Candidates.Names) > 0 {
		out = append(out, header.WithCandidates(cfg.Candidates.Names...))
	}
	return out, nil
}
