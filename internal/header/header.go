// Package header turns a distance matrix into a header: the list naming,
// for every column of a vector signal, the candidate signal it most likely
// carries.
package header

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/chrissnell/blmheader/internal/distance"
)

// Unmatched is the header entry of a column that shares no timestamp with
// any candidate.
const Unmatched = ""

// Header holds one candidate name per vector column, in column order. Names
// may repeat.
type Header []string

// Match is the assignment of one vector column.
type Match struct {
	Column   int
	Name     string
	Distance float64
	// RunnerUp is the second closest candidate, empty with a single
	// candidate.
	RunnerUp         string
	RunnerUpDistance float64
}

// Margin is how much closer the chosen candidate is than the runner-up.
func (m Match) Margin() float64 {
	return m.RunnerUpDistance - m.Distance
}

// Reduce picks for every row of m the candidate with the smallest distance.
// Ties go to the candidate that comes first.
func Reduce(m *distance.Matrix) Header {
	matches := Assign(m)
	h := make(Header, len(matches))
	for i, mt := range matches {
		h[i] = mt.Name
	}
	return h
}

// Assign is Reduce with the distances and runner-up kept.
func Assign(m *distance.Matrix) []Match {
	rows, _ := m.Dims()
	names := m.Candidates()
	out := make([]Match, rows)
	for i := 0; i < rows; i++ {
		row := m.Row(i)
		best := floats.MinIdx(row)
		mt := Match{
			Column:           i,
			Name:             names[best],
			Distance:         row[best],
			RunnerUpDistance: math.Inf(1),
		}
		if math.IsInf(row[best], 1) {
			mt.Name = Unmatched
		}
		for j, d := range row {
			if j == best {
				continue
			}
			if mt.RunnerUp == "" || d < mt.RunnerUpDistance {
				mt.RunnerUp = names[j]
				mt.RunnerUpDistance = d
			}
		}
		out[i] = mt
	}
	return out
}

// Duplicate is a name assigned to more than one column.
type Duplicate struct {
	Name      string
	Positions []int
}

// Duplicates lists the names appearing more than once in h, in order of
// first appearance. Unmatched entries are not reported.
func Duplicates(h Header) []Duplicate {
	positions := make(map[string][]int)
	var order []string
	for i, name := range h {
		if name == Unmatched {
			continue
		}
		if _, seen := positions[name]; !seen {
			order = append(order, name)
		}
		positions[name] = append(positions[name], i)
	}

	var out []Duplicate
	for _, name := range order {
		if p := positions[name]; len(p) > 1 {
			out = append(out, Duplicate{Name: name, Positions: p})
		}
	}
	return out
}
