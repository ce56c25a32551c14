package buffer

import "github.com/Carmen-Shannon/oxy-geometry/engine/layout"

// View interprets the storage of a GrowableBuffer as an array of one scalar format.
// A View is bound to the allocation it was created from: once the owning buffer reallocates the view is stale
// and must be reacquired through GrowableBuffer.ViewAs.
type View struct {
	format     layout.ScalarFormat
	width      int
	data       []byte
	owner      *GrowableBuffer
	generation uint64
}

// Format returns the scalar format the view decodes.
func (v *View) Format() layout.ScalarFormat {
	return v.format
}

// Stale reports whether the owning buffer has reallocated (or been freed) since the view was created.
func (v *View) Stale() bool {
	return v.owner == nil || v.generation != v.owner.generation
}

// Len returns the number of whole scalars the view covers.
func (v *View) Len() int {
	if v.width == 0 {
		return 0
	}
	return len(v.data) / v.width
}

// Get returns the scalar at element index i.
func (v *View) Get(i int) float64 {
	return v.GetAt(i * v.width)
}

// Set stores value at element index i.
func (v *View) Set(i int, value float64) {
	v.SetAt(i*v.width, value)
}

// GetAt returns the scalar stored at byteOffset. The offset need not be a multiple of the scalar width,
// which lets interleaved records with odd strides be addressed directly.
func (v *View) GetAt(byteOffset int) float64 {
	return scalarAt(v.data[byteOffset:byteOffset+v.width], v.format)
}

// SetAt stores value at byteOffset.
func (v *View) SetAt(byteOffset int, value float64) {
	putScalar(v.data[byteOffset:byteOffset+v.width], v.format, value)
}
