package timeutil

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	durationRe     = regexp.MustCompile(`^(?:\s*(?:\d+(?:\.\d*)?|\.\d+)\s*[a-zA-Zµ]+)+\s*$`)
	durationPartRe = regexp.MustCompile(`(\d+(?:\.\d*)?|\.\d+)\s*([a-zA-Zµ]+)`)
)

// Unit aliases accepted by ParseDuration, keyed in lower case. "M" means
// minutes, as it does for the look-back/look-forward options.
var durationUnits = map[string]time.Duration{
	"w": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"m": time.Minute, "t": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"ms": time.Millisecond, "l": time.Millisecond, "milli": time.Millisecond, "millis": time.Millisecond,
	"millisecond": time.Millisecond, "milliseconds": time.Millisecond,
	"us": time.Microsecond, "µs": time.Microsecond, "u": time.Microsecond, "micro": time.Microsecond,
	"micros": time.Microsecond, "microsecond": time.Microsecond, "microseconds": time.Microsecond,
	"ns": time.Nanosecond, "n": time.Nanosecond, "nano": time.Nanosecond, "nanos": time.Nanosecond,
	"nanosecond": time.Nanosecond, "nanoseconds": time.Nanosecond,
}

// ParseDuration parses strings such as "30M", "4H", "1D", "1H30M", "1.5h" or
// "90 seconds". A leading minus sign negates the whole value.
func ParseDuration(s string) (time.Duration, error) {
	raw := s
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" || !durationRe.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, raw)
	}

	var total float64
	for _, part := range durationPartRe.FindAllStringSubmatch(s, -1) {
		unit, ok := durationUnits[strings.ToLower(part[2])]
		if !ok {
			return 0, fmt.Errorf("%w: %q: unknown unit %q", ErrInvalidDuration, raw, part[2])
		}
		v, err := strconv.ParseFloat(part[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDuration, raw, err)
		}
		total += v * float64(unit)
	}
	if total >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalidDuration, raw)
	}

	d := time.Duration(math.Round(total))
	if neg {
		d = -d
	}
	return d, nil
}
