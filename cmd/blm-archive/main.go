package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/chrissnell/blmheader/internal/log"
	"github.com/chrissnell/blmheader/internal/progress"
	"github.com/chrissnell/blmheader/pkg/config"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

type Mode string

const (
	ModeExport Mode = "export"
	ModeImport Mode = "import"
)

type Config struct {
	Mode     Mode
	DSN      string
	Archive  string
	Start    string
	End      string
	Patterns []string
	Timezone string
	Window   timeutil.Window
}

const defaultArchive = "blm.sqlite"

// applyConfigFile fills the settings left empty on the command line from a
// blmheader configuration file.
func (c *Config) applyConfigFile(path string) error {
	data, err := config.Load(path)
	if err != nil {
		return err
	}
	if c.DSN == "" && data.DataSource.TimescaleDB != nil {
		c.DSN = data.DataSource.TimescaleDB.ConnectionString
	}
	if c.Archive == "" && data.DataSource.Archive != nil {
		c.Archive = data.DataSource.Archive.Path
	}
	if c.Timezone == "" {
		c.Timezone = data.Timezone
	}
	if len(c.Patterns) == 0 {
		c.Patterns = []string{data.Vector.Variable, data.Candidates.Pattern}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Archive == "" {
		c.Archive = defaultArchive
	}
	if c.Timezone == "" {
		c.Timezone = timeutil.DefaultTimezone
	}
	if len(c.Patterns) == 0 {
		c.Patterns = []string{config.DefaultVectorVariable, config.DefaultCandidatePattern}
	}
}

type patternList []string

func (p *patternList) String() string { return fmt.Sprint(*p) }

func (p *patternList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	var cfg Config
	var patterns patternList

	modeStr := flag.String("mode", "export", "export: TimescaleDB to archive, import: archive to TimescaleDB")
	configFile := flag.String("config", "", "blmheader configuration file supplying defaults for -dsn, -archive, -timezone and -pattern")
	flag.StringVar(&cfg.DSN, "dsn", "", "TimescaleDB connection string")
	flag.StringVar(&cfg.Archive, "archive", "", "SQLite archive file (default "+defaultArchive+")")
	flag.StringVar(&cfg.Start, "start", "", "start of the window to copy (epoch or date string)")
	flag.StringVar(&cfg.End, "end", "", "end of the window to copy (epoch or date string)")
	flag.Var(&patterns, "pattern", "signal name pattern to export, % and * are wildcards (repeatable)")
	flag.StringVar(&cfg.Timezone, "timezone", "", "timezone of zone-less date strings (default "+timeutil.DefaultTimezone+")")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	flag.Parse()

	verbosity := 1
	if *debug {
		verbosity = 2
	}
	if err := log.Init(verbosity); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	switch Mode(*modeStr) {
	case ModeExport, ModeImport:
		cfg.Mode = Mode(*modeStr)
	default:
		log.Fatalf("Invalid mode: %s. Must be export or import", *modeStr)
	}
	cfg.Patterns = patterns
	if *configFile != "" {
		if err := cfg.applyConfigFile(*configFile); err != nil {
			log.Fatalf("%v", err)
		}
	}
	cfg.applyDefaults()
	if cfg.DSN == "" {
		log.Fatalf("-dsn is required")
	}

	norm, err := timeutil.NewNormalizer(cfg.Timezone)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg.Start == "" || cfg.End == "" {
		log.Fatalf("-start and -end are required")
	}
	_, cfg.Window, err = norm.ResolveWindow(cfg.Start, cfg.End, "", "")
	if err != nil {
		log.Fatalf("Invalid window: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reporter := progress.ForFile(os.Stderr)
	switch cfg.Mode {
	case ModeExport:
		err = export(ctx, cfg, reporter)
	case ModeImport:
		err = importArchive(ctx, cfg, reporter)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", cfg.Mode, err)
	}
	log.Infof("%s completed successfully", cfg.Mode)
}
