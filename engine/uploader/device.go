package uploader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-geometry/engine/buffer"
)

// Usage tells the device what a buffer will be bound as.
type Usage int

const (
	UsageVertex Usage = iota
	UsageIndex
)

func (u Usage) String() string {
	switch u {
	case UsageVertex:
		return "vertex"
	case UsageIndex:
		return "index"
	default:
		return fmt.Sprintf("Usage(%d)", int(u))
	}
}

// Handle is a device buffer allocated by a Device.
type Handle interface {
	// Size returns the allocated size in bytes.
	Size() uint64
}

// Device is the part of a rendering backend the uploader needs: fixed-size buffer allocation and byte range
// uploads. Implementations need not be safe for concurrent use; the uploader serializes every call.
type Device interface {
	// Allocate creates a device buffer of size bytes, usable as usage and as a copy destination.
	Allocate(label string, size uint64, usage Usage) (Handle, error)

	// Upload copies data into the buffer at a byte offset. Offset and length are multiples of the copy alignment.
	Upload(h Handle, offset uint64, data []byte) error

	// Free releases a buffer returned by Allocate.
	Free(h Handle)
}

// Source is CPU-side buffer data the uploader mirrors to the device. Vertex and index buffers satisfy it.
type Source interface {
	Label() string
	Bytes() []byte
	Capacity() int
	DrainDirtyRanges() []buffer.DirtyRange
}

// BufferWrite is one staged upload: a copy of the bytes to write into a device buffer at a byte offset.
type BufferWrite struct {
	Offset uint64
	Data   []byte
}
