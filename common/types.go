// Package common contains small helpers and constraints shared by every package of the geometry subsystem.
// They are not interface-wrapped structs, just plain functions and types.
package common

import "golang.org/x/exp/constraints"

// Integer is satisfied by every signed and unsigned integer type.
type Integer interface {
	constraints.Integer
}

// Numeric is satisfied by every integer and floating point type that can be written into a vertex or index buffer.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// ToFloat64s converts a slice of any numeric type into float64 values, the common currency of attribute writes.
// float64 represents every value of the 8, 16 and 32 bit scalar formats exactly.
//
// Parameters:
//   - values: the values to convert
//
// Returns:
//   - []float64: a newly allocated slice holding the converted values
func ToFloat64s[T Numeric](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
