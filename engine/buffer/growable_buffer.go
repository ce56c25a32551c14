package buffer

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
)

const (
	// DefaultGrowthFactor is the base of the power the capacity grows to.
	DefaultGrowthFactor = 2

	// DefaultMaxCapacity is the largest allocation a buffer accepts unless configured otherwise.
	DefaultMaxCapacity = math.MaxInt32
)

// GrowableBuffer is a resizable raw byte buffer with lazily-created typed views.
// Capacity grows to the smallest power of the growth factor that holds the largest requested size and never
// shrinks. A GrowableBuffer has a single owner and is not safe for concurrent mutation.
type GrowableBuffer struct {
	data        []byte
	used        int
	factor      int
	maxCapacity int
	generation  uint64
	views       map[layout.ScalarFormat]*View
}

// New creates an empty GrowableBuffer.
//
// Parameters:
//   - options: a variadic list of BufferBuilderOption functions to configure the buffer
//
// Returns:
//   - *GrowableBuffer: the new buffer
func New(options ...BufferBuilderOption) *GrowableBuffer {
	b := &GrowableBuffer{
		data:        []byte{},
		factor:      DefaultGrowthFactor,
		maxCapacity: DefaultMaxCapacity,
		views:       make(map[layout.ScalarFormat]*View),
	}
	for _, opt := range options {
		opt(b)
	}
	if len(b.data) > b.maxCapacity {
		b.maxCapacity = len(b.data)
	}
	return b
}

// EnsureCapacity grows the buffer so that it can hold at least minBytes. When growth is needed the storage is
// reallocated to the smallest power of the growth factor >= minBytes (clamped to the maximum capacity), existing
// bytes are copied and every cached view becomes stale. Requests at or below the current capacity do nothing.
//
// Parameters:
//   - minBytes: the number of bytes the buffer must be able to hold
//
// Returns:
//   - error: ErrAllocation if minBytes is negative or exceeds the maximum capacity; the buffer is left unchanged
func (b *GrowableBuffer) EnsureCapacity(minBytes int) error {
	if minBytes < 0 {
		return fmt.Errorf("ensure capacity of %d bytes: %w", minBytes, ErrAllocation)
	}
	if minBytes > b.maxCapacity {
		return fmt.Errorf("ensure capacity of %d bytes exceeds maximum of %d: %w", minBytes, b.maxCapacity, ErrAllocation)
	}
	if minBytes <= len(b.data) {
		return nil
	}

	capacity := common.NextPowerOf(minBytes, b.factor)
	if capacity == 0 || capacity > b.maxCapacity {
		capacity = b.maxCapacity
	}
	b.reallocate(capacity)
	return nil
}

func (b *GrowableBuffer) reallocate(capacity int) {
	next := make([]byte, capacity)
	copy(next, b.data)
	b.data = next
	b.generation++
	clear(b.views)
	common.LogDebug("growable buffer reallocated to %d bytes", capacity)
}

// ViewAs returns a typed view over the whole capacity interpreted as format. Views are cached per format until
// the next reallocation.
//
// Parameters:
//   - format: the scalar format to interpret the bytes as
//
// Returns:
//   - *View: the cached or newly created view
func (b *GrowableBuffer) ViewAs(format layout.ScalarFormat) *View {
	if v, ok := b.views[format]; ok && !v.Stale() {
		return v
	}
	if b.views == nil {
		b.views = make(map[layout.ScalarFormat]*View)
	}
	v := &View{
		format:     format,
		width:      format.Bytes(),
		data:       b.data,
		owner:      b,
		generation: b.generation,
	}
	b.views[format] = v
	return v
}

// SetUsedLength records how many bytes are logically in use. It does not allocate.
//
// Parameters:
//   - n: the used length in bytes, at most the capacity
//
// Returns:
//   - error: ErrAllocation if n is negative or larger than the capacity
func (b *GrowableBuffer) SetUsedLength(n int) error {
	if n < 0 || n > len(b.data) {
		return fmt.Errorf("used length %d outside capacity %d: %w", n, len(b.data), ErrAllocation)
	}
	b.used = n
	return nil
}

// Write copies data into the buffer at a byte offset, growing as needed and extending the used length.
//
// Parameters:
//   - offset: the byte offset to write at
//   - data: the bytes to copy
//
// Returns:
//   - error: ErrAllocation if the write cannot be made to fit
func (b *GrowableBuffer) Write(offset int, data []byte) error {
	if offset < 0 {
		return fmt.Errorf("write at offset %d: %w", offset, ErrAllocation)
	}
	end := offset + len(data)
	if err := b.EnsureCapacity(end); err != nil {
		return err
	}
	copy(b.data[offset:end], data)
	b.used = max(b.used, end)
	return nil
}

// Bytes returns the used portion of the storage. The slice aliases the buffer and is invalidated by growth.
func (b *GrowableBuffer) Bytes() []byte {
	return b.data[:b.used]
}

// Raw returns the whole allocation, including unused capacity.
func (b *GrowableBuffer) Raw() []byte {
	return b.data
}

// Capacity returns the allocated size in bytes.
func (b *GrowableBuffer) Capacity() int {
	return len(b.data)
}

// UsedLength returns the number of bytes logically in use.
func (b *GrowableBuffer) UsedLength() int {
	return b.used
}

// GrowthFactor returns the base of the power capacities grow to.
func (b *GrowableBuffer) GrowthFactor() int {
	return b.factor
}

// MaxCapacity returns the largest capacity the buffer will allocate.
func (b *GrowableBuffer) MaxCapacity() int {
	return b.maxCapacity
}

// Generation increments on every reallocation. Consumers holding raw slices compare it to detect staleness.
func (b *GrowableBuffer) Generation() uint64 {
	return b.generation
}

// Free drops the storage and every cached view. The buffer may be reused afterwards and starts empty.
func (b *GrowableBuffer) Free() {
	b.data = []byte{}
	b.used = 0
	b.generation++
	clear(b.views)
}
