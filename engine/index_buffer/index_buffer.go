package index_buffer

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
)

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	IndexFormatUndefined IndexFormat = iota
	IndexFormatUint16
	IndexFormatUint32
)

// Scalar returns the scalar format index elements are stored as.
func (f IndexFormat) Scalar() layout.ScalarFormat {
	switch f {
	case IndexFormatUint16:
		return layout.ScalarUint16
	case IndexFormatUint32:
		return layout.ScalarUint32
	default:
		return layout.ScalarUndefined
	}
}

// Bytes returns the size of one index in bytes, or 0 for an undefined format.
func (f IndexFormat) Bytes() int {
	return f.Scalar().Bytes()
}

// MaxIndex returns the largest index the format can hold.
func (f IndexFormat) MaxIndex() uint32 {
	if f == IndexFormatUint16 {
		return math.MaxUint16
	}
	return math.MaxUint32
}

func (f IndexFormat) String() string {
	switch f {
	case IndexFormatUint16:
		return "uint16"
	case IndexFormatUint32:
		return "uint32"
	default:
		return fmt.Sprintf("IndexFormat(%d)", int(f))
	}
}

// ParseIndexFormat maps "uint16" or "uint32" to an IndexFormat.
//
// Parameters:
//   - s: the format name
//
// Returns:
//   - IndexFormat: the parsed format
//   - error: ErrInvalidIndexFormat for any other name
func ParseIndexFormat(s string) (IndexFormat, error) {
	switch s {
	case "uint16":
		return IndexFormatUint16, nil
	case "uint32":
		return IndexFormatUint32, nil
	default:
		return IndexFormatUndefined, fmt.Errorf("%q: %w", s, ErrInvalidIndexFormat)
	}
}

// indexBuffer is the implementation of the IndexBuffer interface.
type indexBuffer struct {
	label     string
	format    IndexFormat
	buf       *buffer.GrowableBuffer
	dirty     buffer.DirtyRanges
	destroyed bool

	bufferOptions []buffer.BufferBuilderOption
}

// IndexBuffer plans a tightly packed array of 16 or 32 bit unsigned indices. It is the attribute-less case of a
// vertex buffer: one scalar per element with no gap between elements.
type IndexBuffer interface {
	// WriteIndices copies values into the buffer starting at element offset, growing the storage as needed.
	// The write is all-or-nothing: indices that do not fit the format fail the whole call before anything is written.
	//
	// Parameters:
	//   - values: the source indices
	//   - offset: the first element to write
	//   - options: source offset, count and dirty marking
	//
	// Returns:
	//   - error: ErrIndexOutOfRange, ErrSourceRange, buffer.ErrAllocation or ErrDestroyed
	WriteIndices(values []uint32, offset int, options ...WriteOption) error

	// DrainDirtyRanges returns the byte ranges marked dirty since the last drain, in order, and clears the list.
	//
	// Returns:
	//   - []buffer.DirtyRange: the pending ranges, nil if there are none
	DrainDirtyRanges() []buffer.DirtyRange

	// Destroy frees the storage. Calling Destroy again does nothing.
	Destroy()

	// Count returns the number of indices in use.
	Count() int
	Format() IndexFormat
	Label() string

	// Bytes returns the used portion of the storage. The slice is invalidated by the next growing write.
	Bytes() []byte

	// ByteSize returns the used length in bytes.
	ByteSize() int
	Capacity() int
	Destroyed() bool
}

var _ IndexBuffer = &indexBuffer{}

// NewIndexBuffer creates an empty IndexBuffer.
//
// Parameters:
//   - label: a human readable name used in logs and device buffer labels
//   - format: IndexFormatUint16 or IndexFormatUint32
//   - options: a variadic list of IndexBufferBuilderOption functions to configure the buffer
//
// Returns:
//   - IndexBuffer: the new index buffer
//   - error: ErrInvalidIndexFormat if format is not a supported index format
func NewIndexBuffer(label string, format IndexFormat, options ...IndexBufferBuilderOption) (IndexBuffer, error) {
	if format != IndexFormatUint16 && format != IndexFormatUint32 {
		return nil, fmt.Errorf("index buffer %q with format %s: %w", label, format, ErrInvalidIndexFormat)
	}
	ib := &indexBuffer{
		label:  label,
		format: format,
	}
	for _, opt := range options {
		opt(ib)
	}
	ib.buf = buffer.New(ib.bufferOptions...)
	ib.bufferOptions = nil
	return ib, nil
}

func (ib *indexBuffer) WriteIndices(values []uint32, offset int, options ...WriteOption) error {
	if ib.destroyed {
		return ErrDestroyed
	}
	w := writeRequest{count: -1}
	for _, opt := range options {
		opt(&w)
	}
	if offset < 0 || w.sourceOffset < 0 || w.sourceOffset > len(values) {
		return ErrSourceRange
	}
	count := w.count
	if count < 0 {
		count = len(values) - w.sourceOffset
	}
	if w.sourceOffset+count > len(values) {
		return ErrSourceRange
	}
	if count == 0 {
		return nil
	}

	src := values[w.sourceOffset : w.sourceOffset+count]
	limit := ib.format.MaxIndex()
	for i, v := range src {
		if v > limit {
			return fmt.Errorf("index %d at position %d exceeds %s: %w", v, w.sourceOffset+i, ib.format, ErrIndexOutOfRange)
		}
	}

	width := ib.format.Bytes()
	if offset > math.MaxInt/width-count {
		return fmt.Errorf("index buffer %q offset %d: %w", ib.label, offset, buffer.ErrAllocation)
	}
	start := offset * width
	end := start + count*width
	if err := ib.buf.EnsureCapacity(end); err != nil {
		return fmt.Errorf("index buffer %q: %w", ib.label, err)
	}

	view := ib.buf.ViewAs(ib.format.Scalar())
	for i, v := range src {
		view.Set(offset+i, float64(v))
	}
	if end > ib.buf.UsedLength() {
		if err := ib.buf.SetUsedLength(end); err != nil {
			return err
		}
	}
	if w.markDirty {
		ib.dirty.Mark(start, end-start)
	}
	return nil
}

func (ib *indexBuffer) DrainDirtyRanges() []buffer.DirtyRange {
	return ib.dirty.Drain()
}

func (ib *indexBuffer) Destroy() {
	if ib.destroyed {
		return
	}
	ib.destroyed = true
	ib.buf.Free()
	ib.dirty.Drain()
	common.LogDebug("index buffer %q destroyed", ib.label)
}

func (ib *indexBuffer) Count() int {
	return ib.buf.UsedLength() / ib.format.Bytes()
}

func (ib *indexBuffer) Format() IndexFormat {
	return ib.format
}

func (ib *indexBuffer) Label() string {
	return ib.label
}

func (ib *indexBuffer) Bytes() []byte {
	return ib.buf.Bytes()
}

func (ib *indexBuffer) ByteSize() int {
	return ib.buf.UsedLength()
}

func (ib *indexBuffer) Capacity() int {
	return ib.buf.Capacity()
}

func (ib *indexBuffer) Destroyed() bool {
	return ib.destroyed
}

// WriteIndexData converts indices of any integer type and writes them with WriteIndices. Negative values are
// rejected with ErrIndexOutOfRange.
//
// Parameters:
//   - ib: the index buffer to write to
//   - values: the source indices
//   - offset: the first element to write
//   - options: write options, as for WriteIndices
//
// Returns:
//   - error: any error returned by WriteIndices
func WriteIndexData[T common.Integer](ib IndexBuffer, values []T, offset int, options ...WriteOption) error {
	converted := make([]uint32, len(values))
	for i, v := range values {
		if v < 0 || uint64(v) > math.MaxUint32 {
			return fmt.Errorf("index %d at position %d: %w", v, i, ErrIndexOutOfRange)
		}
		converted[i] = uint32(v)
	}
	return ib.WriteIndices(converted, offset, options...)
}
