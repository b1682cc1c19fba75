package datasource

import (
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeVector packs one vector sample for storage.
func EncodeVector(values []float64) ([]byte, error) {
	b, err := msgpack.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encoding vector of %d values: %w", len(values), err)
	}
	return b, nil
}

// DecodeVector unpacks a vector sample written by EncodeVector.
func DecodeVector(b []byte) ([]float64, error) {
	var values []float64
	if err := msgpack.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("decoding vector sample: %w", err)
	}
	return values, nil
}

// Row turns a stored (value, vector) pair into a sample row. A non-empty
// vector takes precedence over the scalar value; a missing value reads as
// NaN.
func Row(value *float64, vector []byte) ([]float64, error) {
	if len(vector) > 0 {
		return DecodeVector(vector)
	}
	if value == nil {
		return []float64{math.NaN()}, nil
	}
	return []float64{*value}, nil
}

// Split is the inverse of Row for a sample row of the given kind.
func Split(row []float64, vector bool) (*float64, []byte, error) {
	if vector {
		b, err := EncodeVector(row)
		return nil, b, err
	}
	if len(row) == 0 || math.IsNaN(row[0]) {
		return nil, nil, nil
	}
	v := row[0]
	return &v, nil, nil
}
