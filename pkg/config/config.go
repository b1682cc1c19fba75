// Package config loads the blmheader configuration file.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// Data source types
const (
	DataSourceTimescaleDB = "timescaledb"
	DataSourceArchive     = "archive"
)

// Defaults applied to settings missing from the configuration file
const (
	DefaultResolution       = "1S"
	DefaultMinSpan          = "1S"
	DefaultVectorVariable   = "LHC.BLMI:LOSS_RS09"
	DefaultCandidatePattern = "BLM%:LOSS_RS09"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads, defaults and validates the YAML configuration in filename.
func Load(filename string) (*ConfigData, error) {
	cfg, err := NewYAMLProvider(filename).LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("could not read config file %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", filename, err)
	}
	return cfg, nil
}

// ApplyDefaults fills in every unset setting that has a default. The data
// source type is inferred when exactly one backend section is present.
func (c *ConfigData) ApplyDefaults() {
	if c.Timezone == "" {
		c.Timezone = timeutil.DefaultTimezone
	}
	if c.Resolution == "" {
		c.Resolution = DefaultResolution
	}
	if c.Vector.Variable == "" {
		c.Vector.Variable = DefaultVectorVariable
	}
	if c.Candidates.Pattern == "" {
		c.Candidates.Pattern = DefaultCandidatePattern
	}
	if c.Fetch.MinSpan == "" {
		c.Fetch.MinSpan = DefaultMinSpan
	}
	if c.DataSource.Type == "" {
		switch {
		case c.DataSource.TimescaleDB != nil && c.DataSource.Archive == nil:
			c.DataSource.Type = DataSourceTimescaleDB
		case c.DataSource.Archive != nil && c.DataSource.TimescaleDB == nil:
			c.DataSource.Type = DataSourceArchive
		}
	}
}

// Validate checks that the configuration can be used as is.
func (c *ConfigData) Validate() error {
	var errs []error

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if d, err := c.ResolutionDuration(); err != nil {
		errs = append(errs, fmt.Errorf("resolution: %w", err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("resolution must be positive, got %s", c.Resolution))
	}
	if _, err := c.MinSpanDuration(); err != nil {
		errs = append(errs, fmt.Errorf("fetch min-span: %w", err))
	}
	if _, err := c.FilterRegexp(); err != nil {
		errs = append(errs, fmt.Errorf("candidates filter: %w", err))
	}

	switch c.DataSource.Type {
	case DataSourceTimescaleDB:
		if c.DataSource.TimescaleDB == nil || c.DataSource.TimescaleDB.ConnectionString == "" {
			errs = append(errs, errors.New("datasource timescaledb requires a connection-string"))
		}
	case DataSourceArchive:
		if c.DataSource.Archive == nil || c.DataSource.Archive.Path == "" {
			errs = append(errs, errors.New("datasource archive requires a path"))
		}
	case "":
		errs = append(errs, errors.New("datasource type must be set"))
	default:
		errs = append(errs, fmt.Errorf("unknown datasource type %q (want %s or %s)", c.DataSource.Type, DataSourceTimescaleDB, DataSourceArchive))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ResolutionDuration parses Resolution.
func (c *ConfigData) ResolutionDuration() (time.Duration, error) {
	return timeutil.ParseDuration(c.Resolution)
}

// MinSpanDuration parses Fetch.MinSpan.
func (c *ConfigData) MinSpanDuration() (time.Duration, error) {
	return timeutil.ParseDuration(c.Fetch.MinSpan)
}

// FilterRegexp compiles the candidate filter. It returns nil when no filter
// is configured.
func (c *ConfigData) FilterRegexp() (*regexp.Regexp, error) {
	if c.Candidates.Filter == "" {
		return nil, nil
	}
	return regexp.Compile(c.Candidates.Filter)
}
