package distance

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense table of distances. Row i belongs to the i-th vector
// column, column j to the j-th candidate in collection order.
type Matrix struct {
	columns    []string
	candidates []string
	data       *mat.Dense
	emptyPairs int
}

// NewMatrix wraps precomputed rows. Each row must hold one value per
// candidate.
func NewMatrix(columns, candidates []string, rows [][]float64) (*Matrix, error) {
	if len(columns) == 0 || len(candidates) == 0 {
		return nil, fmt.Errorf("distance matrix needs at least one column and one candidate (got %d x %d)", len(columns), len(candidates))
	}
	if len(rows) != len(columns) {
		return nil, fmt.Errorf("distance matrix has %d rows for %d columns", len(rows), len(columns))
	}
	data := make([]float64, 0, len(columns)*len(candidates))
	for i, r := range rows {
		if len(r) != len(candidates) {
			return nil, fmt.Errorf("distance matrix row %d has %d values for %d candidates", i, len(r), len(candidates))
		}
		data = append(data, r...)
	}
	return &Matrix{
		columns:    append([]string(nil), columns...),
		candidates: append([]string(nil), candidates...),
		data:       mat.NewDense(len(columns), len(candidates), data),
	}, nil
}

// Dims returns the number of rows (vector columns) and columns (candidates).
func (m *Matrix) Dims() (int, int) {
	return m.data.Dims()
}

// At returns the distance between vector column i and candidate j.
func (m *Matrix) At(i, j int) float64 {
	return m.data.At(i, j)
}

// Row returns a copy of the distances for vector column i.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.data)
}

// Columns returns the vector column names in row order.
func (m *Matrix) Columns() []string {
	return append([]string(nil), m.columns...)
}

// Candidates returns the candidate names in column order.
func (m *Matrix) Candidates() []string {
	return append([]string(nil), m.candidates...)
}

// EmptyPairs returns how many pairs had no common timestamp.
func (m *Matrix) EmptyPairs() int {
	return m.emptyPairs
}

// Equal reports whether two matrices hold the same labels and values.
func (m *Matrix) Equal(o *Matrix) bool {
	if o == nil {
		return false
	}
	if !slices.Equal(m.columns, o.columns) || !slices.Equal(m.candidates, o.candidates) {
		return false
	}
	return mat.Equal(m.data, o.data)
}
