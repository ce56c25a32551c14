package buffer

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
	"github.com/x448/float16"
)

// putScalar encodes v at the start of dst using the little-endian representation of format.
// Integer formats truncate toward zero and wrap to their bit width; NaN encodes as 0.
// Normalized formats store the raw integer value the caller supplies.
func putScalar(dst []byte, format layout.ScalarFormat, v float64) {
	switch format {
	case layout.ScalarFloat32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(v)))
		return
	case layout.ScalarFloat16:
		binary.LittleEndian.PutUint16(dst, float16.Fromfloat32(float32(v)).Bits())
		return
	}

	var n int64
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		n = int64(v)
	}
	switch format.Bytes() {
	case 1:
		dst[0] = byte(n)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(n))
	case 4:
		binary.LittleEndian.PutUint32(dst, uint32(n))
	}
}

// scalarAt decodes the value stored at the start of src using format.
func scalarAt(src []byte, format layout.ScalarFormat) float64 {
	switch format {
	case layout.ScalarFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(src)))
	case layout.ScalarFloat16:
		return float64(float16.Frombits(binary.LittleEndian.Uint16(src)).Float32())
	case layout.ScalarUint8, layout.ScalarUnorm8:
		return float64(src[0])
	case layout.ScalarSint8, layout.ScalarSnorm8:
		return float64(int8(src[0]))
	case layout.ScalarUint16, layout.ScalarUnorm16:
		return float64(binary.LittleEndian.Uint16(src))
	case layout.ScalarSint16, layout.ScalarSnorm16:
		return float64(int16(binary.LittleEndian.Uint16(src)))
	case layout.ScalarUint32:
		return float64(binary.LittleEndian.Uint32(src))
	case layout.ScalarSint32:
		return float64(int32(binary.LittleEndian.Uint32(src)))
	}
	return 0
}
