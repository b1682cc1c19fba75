package app

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/blmheader/internal/header"
	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// Stdout is the output name that selects standard output.
const Stdout = "stdout"

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// OutputName expands {t} in template with the file stamp of t.
func OutputName(template string, t time.Time) string {
	return strings.ReplaceAll(template, "{t}", timeutil.FileStamp(t))
}

// OpenOutput opens the destination named by template. "stdout" (or an empty
// template) writes to stdout, which is never closed.
func OpenOutput(template string, t time.Time, stdout io.Writer) (io.WriteCloser, error) {
	if template == "" || template == Stdout {
		return nopCloser{stdout}, nil
	}
	name := OutputName(template, t)
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("could not create output file: %w", err)
	}
	return f, nil
}

// WriteHeader writes one name per line.
func WriteHeader(w io.Writer, h header.Header) error {
	if _, err := io.WriteString(w, strings.Join(h, "\n")+"\n"); err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}
	return nil
}

// WarnDuplicates logs every name assigned to more than one column. It only
// warns; duplicates are expected when the window holds no beam.
func WarnDuplicates(logger *zap.SugaredLogger, dups []header.Duplicate) {
	if len(dups) == 0 {
		return
	}
	logger.Warn("there are duplicates in the header")
	for _, d := range dups {
		logger.Warnw("duplicate header entry",
			"name", d.Name,
			"count", len(d.Positions),
			"positions", d.Positions,
		)
	}
}
