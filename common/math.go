package common

import (
	"math"
	"unsafe"
)

// AlignUp rounds value up to the next multiple of alignment.
// An alignment of 0 or 1 returns value unchanged.
//
// Parameters:
//   - value: the value to round
//   - alignment: the alignment to round to
//
// Returns:
//   - T: the smallest multiple of alignment that is >= value
func AlignUp[T Integer](value, alignment T) T {
	if alignment <= 1 {
		return value
	}
	r := value % alignment
	if r == 0 {
		return value
	}
	return value + alignment - r
}

// IsAligned reports whether value is a multiple of alignment.
//
// Parameters:
//   - value: the value to check
//   - alignment: the required alignment
//
// Returns:
//   - bool: true if value is a multiple of alignment
func IsAligned[T Integer](value, alignment T) bool {
	if alignment <= 1 {
		return true
	}
	return value%alignment == 0
}

// NextPowerOf returns the smallest power of factor that is greater than or equal to n.
// Factors below 2 are treated as 2. Returns 1 for n <= 1, and 0 if the result would overflow an int.
//
// Parameters:
//   - n: the minimum value the result must cover
//   - factor: the base of the power
//
// Returns:
//   - int: the smallest factor^k >= n, or 0 on overflow
func NextPowerOf(n, factor int) int {
	if factor < 2 {
		factor = 2
	}
	p := 1
	for p < n {
		if p > math.MaxInt/factor {
			return 0
		}
		p *= factor
	}
	return p
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}
