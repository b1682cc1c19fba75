// Package timeutil converts epoch numbers and free-form date strings into
// timestamps in a single canonical location, parses pandas-style duration
// strings and resolves the time window a header is built from.
package timeutil

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultTimezone is the canonical location used when none is configured.
const DefaultTimezone = "Europe/Zurich"

// FileStampLayout formats the requested time for output file templates.
const FileStampLayout = "2006_01_02_15_04_05-0700"

var (
	// ErrInvalidTimeFormat is returned when a value is neither an epoch number
	// nor a parseable date string.
	ErrInvalidTimeFormat = errors.New("invalid time format")

	// ErrInvalidDuration is returned for unparseable duration strings.
	ErrInvalidDuration = errors.New("invalid duration")
)

// Normalizer converts time representations into its canonical location.
type Normalizer struct {
	Location *time.Location
}

// NewNormalizer loads the named IANA location. An empty name selects
// DefaultTimezone.
func NewNormalizer(tz string) (*Normalizer, error) {
	if strings.TrimSpace(tz) == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unable to load timezone %q: %w", tz, err)
	}
	return &Normalizer{Location: loc}, nil
}

// Normalize accepts epoch seconds (any Go numeric type, or a string holding a
// number), a date/time string, or a time.Time and returns the instant in the
// canonical location. Strings without zone information are taken to be in the
// canonical location already.
func (n *Normalizer) Normalize(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.In(n.Location), nil
	case *time.Time:
		if t == nil {
			break
		}
		return t.In(n.Location), nil
	case float64:
		return n.fromEpoch(t)
	case float32:
		return n.fromEpoch(float64(t))
	case int:
		return n.fromWholeEpoch(int64(t))
	case int32:
		return n.fromWholeEpoch(int64(t))
	case int64:
		return n.fromWholeEpoch(t)
	case uint32:
		return n.fromWholeEpoch(int64(t))
	case string:
		return n.fromString(t)
	}
	return time.Time{}, fmt.Errorf("%w: can't figure out how to convert %v (%T)", ErrInvalidTimeFormat, v, v)
}

func (n *Normalizer) fromEpoch(sec float64) (time.Time, error) {
	if math.IsNaN(sec) || math.Abs(sec) >= maxEpochSeconds {
		return time.Time{}, fmt.Errorf("%w: epoch value %v out of range", ErrInvalidTimeFormat, sec)
	}
	return EpochToTime(sec, n.Location), nil
}

func (n *Normalizer) fromWholeEpoch(sec int64) (time.Time, error) {
	if math.Abs(float64(sec)) >= maxEpochSeconds {
		return time.Time{}, fmt.Errorf("%w: epoch value %d out of range", ErrInvalidTimeFormat, sec)
	}
	return time.Unix(sec, 0).In(n.Location), nil
}

func (n *Normalizer) fromString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrInvalidTimeFormat)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return n.fromEpoch(f)
	}
	t, err := dateparse.ParseIn(s, n.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidTimeFormat, s, err)
	}
	return t.In(n.Location), nil
}

// maxEpochSeconds bounds the epochs whose UnixNano fits in an int64.
const maxEpochSeconds = math.MaxInt64 / 1e9

// EpochToTime converts fractional seconds since the Unix epoch to a time in loc.
func EpochToTime(sec float64, loc *time.Location) time.Time {
	whole := math.Floor(sec)
	nsec := math.Round((sec - whole) * 1e9)
	return time.Unix(int64(whole), int64(nsec)).In(loc)
}

// TimeToEpoch is the inverse of EpochToTime.
func TimeToEpoch(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Round rounds t to the nearest multiple of resolution counted from the Unix
// epoch, halves rounding up. A non-positive resolution returns t unchanged.
func Round(t time.Time, resolution time.Duration) time.Time {
	if resolution <= 0 {
		return t
	}
	r := int64(resolution)
	ns := t.UnixNano() + r/2
	q := ns / r
	if ns%r < 0 {
		q--
	}
	return time.Unix(0, q*r).In(t.Location())
}

// FileStamp formats t for use in output file names.
func FileStamp(t time.Time) string {
	return t.Format(FileStampLayout)
}
