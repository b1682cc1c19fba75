package series

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chrissnell/blmheader/pkg/timeutil"
)

// ErrRaggedMatrix is returned when vector samples differ in width.
var ErrRaggedMatrix = errors.New("vector samples differ in width")

// Matrix is a jointly sampled multi-channel signal: one row of values per
// timestamp, one column per channel.
type Matrix struct {
	Name  string
	Times []time.Time
	Rows  [][]float64
}

// NewMatrixFromEpochs builds a matrix from epoch seconds and per-sample rows.
// Every row must have the same width.
func NewMatrixFromEpochs(name string, epochs []float64, rows [][]float64, loc *time.Location) (*Matrix, error) {
	if len(epochs) != len(rows) {
		return nil, fmt.Errorf("%s: %w (%d != %d)", name, ErrLengthMismatch, len(epochs), len(rows))
	}
	m := &Matrix{
		Name:  name,
		Times: make([]time.Time, len(epochs)),
		Rows:  rows,
	}
	for i, e := range epochs {
		m.Times[i] = timeutil.EpochToTime(e, loc)
	}
	if len(rows) > 0 {
		width := len(rows[0])
		for i, r := range rows {
			if len(r) != width {
				return nil, fmt.Errorf("%s: %w: sample %d has %d values, expected %d", name, ErrRaggedMatrix, i, len(r), width)
			}
		}
	}
	return m, nil
}

// Samples returns the number of timestamps.
func (m *Matrix) Samples() int {
	return len(m.Times)
}

// Width returns the number of columns.
func (m *Matrix) Width() int {
	if len(m.Rows) == 0 {
		return 0
	}
	return len(m.Rows[0])
}

// Columns splits the matrix into one series per column, named by the column
// index, each aligned to resolution.
func (m *Matrix) Columns(resolution time.Duration) []*Series {
	width := m.Width()
	cols := make([]*Series, width)
	for c := 0; c < width; c++ {
		values := make([]float64, len(m.Rows))
		for r, row := range m.Rows {
			values[r] = row[c]
		}
		s := &Series{Name: strconv.Itoa(c), Times: m.Times, Values: values}
		cols[c] = s.Align(resolution)
	}
	return cols
}
