package vertex_buffer

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout_cache"
)

// pendingAttribute is an attribute declaration queued by WithAttribute and applied during construction.
type pendingAttribute struct {
	name    string
	format  layout.Format
	options []layout.DeclareOption
}

// vertexBuffer is the implementation of the VertexBuffer interface.
type vertexBuffer struct {
	label    string
	slot     int
	stepMode layout.StepMode

	table  *layout.Table
	buf    *buffer.GrowableBuffer
	dirty  buffer.DirtyRanges
	cache  layout_cache.LayoutCache
	shared *layout_cache.Descriptor

	onWarning func(layout.Warning)
	destroyed bool

	tableOptions  []layout.TableOption
	bufferOptions []buffer.BufferBuilderOption
	pending       []pendingAttribute
}

// VertexBuffer plans one interleaved vertex buffer: it owns the attribute table describing a record, the growable
// CPU-side storage the records live in and the list of byte ranges changed since the last upload.
//
// Attributes may be declared until Freeze. Data may be written before and after freezing. Freeze resolves the
// table to a shared descriptor in the layout cache, and Destroy releases it.
type VertexBuffer interface {
	// DeclareAttribute adds an attribute to the record. Alignment and overlap warnings are logged and passed to the
	// warning handler, never returned as errors.
	//
	// Parameters:
	//   - name: the attribute name, unique within the buffer
	//   - format: the attribute format
	//   - options: explicit offset or shader location
	//
	// Returns:
	//   - layout.Attribute: the declared attribute with its resolved offset and shader location
	//   - error: layout errors, or ErrDestroyed
	DeclareAttribute(name string, format layout.Format, options ...layout.DeclareOption) (layout.Attribute, error)

	// WriteAttribute scatters values into the records of the named attribute, growing the storage as needed.
	// Values are consumed components at a time, one record per group; a trailing partial group fills the first
	// components of its record. The write is all-or-nothing: every check and any growth happens before the first
	// byte is written.
	//
	// Parameters:
	//   - name: the attribute to write
	//   - values: the source scalars
	//   - options: vertex offset, source offset, count, dirty marking and resize behavior
	//
	// Returns:
	//   - error: ErrUnknownAttribute, ErrSourceRange, ErrCapacityExceeded, buffer.ErrAllocation or ErrDestroyed
	WriteAttribute(name string, values []float64, options ...WriteOption) error

	// ReadAttribute decodes the named attribute of one record.
	//
	// Parameters:
	//   - name: the attribute to read
	//   - vertexIndex: the record index
	//
	// Returns:
	//   - []float64: one value per component
	//   - error: ErrUnknownAttribute, ErrVertexRange or ErrDestroyed
	ReadAttribute(name string, vertexIndex int) ([]float64, error)

	// Freeze makes the attribute table immutable and acquires its shared descriptor from the layout cache.
	// Calling Freeze again does nothing.
	//
	// Returns:
	//   - error: ErrDestroyed, or an error from the cache
	Freeze() error

	// DrainDirtyRanges returns the byte ranges marked dirty since the last drain, in the order they were marked,
	// and clears the list.
	//
	// Returns:
	//   - []buffer.DirtyRange: the pending ranges, nil if there are none
	DrainDirtyRanges() []buffer.DirtyRange

	// Destroy releases the cached layout reference and frees the storage. Calling Destroy again does nothing.
	Destroy()

	Label() string
	Slot() int
	StepMode() layout.StepMode
	Stride() int
	Attributes() []layout.Attribute
	Attribute(name string) (layout.Attribute, bool)

	// Signature returns the layout cache key of the current attribute table.
	Signature() string

	// Descriptor returns the shared cached descriptor once frozen, otherwise one built from the live table.
	Descriptor() layout_cache.Descriptor

	// Bytes returns the used portion of the storage. The slice is invalidated by the next growing write.
	Bytes() []byte
	UsedByteLength() int
	Capacity() int

	// VertexCount returns the number of whole records in use.
	VertexCount() int
	Frozen() bool
	Destroyed() bool

	// Generation changes every time the storage is reallocated.
	Generation() uint64
}

var _ VertexBuffer = &vertexBuffer{}

// NewVertexBuffer creates a VertexBuffer and applies the attribute declarations queued by the options.
//
// Parameters:
//   - label: a human readable name used in logs and device buffer labels
//   - cache: the layout cache to acquire the descriptor from on Freeze; nil keeps the descriptor private
//   - options: a variadic list of VertexBufferBuilderOption functions to configure the buffer
//
// Returns:
//   - VertexBuffer: the new vertex buffer
//   - error: the first error raised by a queued attribute declaration
func NewVertexBuffer(label string, cache layout_cache.LayoutCache, options ...VertexBufferBuilderOption) (VertexBuffer, error) {
	v := &vertexBuffer{
		label:    label,
		stepMode: layout.StepModeVertex,
		cache:    cache,
	}
	for _, opt := range options {
		opt(v)
	}

	v.table = layout.NewTable(v.tableOptions...)
	v.buf = buffer.New(v.bufferOptions...)
	v.tableOptions = nil
	v.bufferOptions = nil

	for _, p := range v.pending {
		if _, err := v.DeclareAttribute(p.name, p.format, p.options...); err != nil {
			return nil, fmt.Errorf("vertex buffer %q: %w", label, err)
		}
	}
	v.pending = nil
	return v, nil
}

func (v *vertexBuffer) DeclareAttribute(name string, format layout.Format, options ...layout.DeclareOption) (layout.Attribute, error) {
	if v.destroyed {
		return layout.Attribute{}, ErrDestroyed
	}
	attr, warnings, err := v.table.Declare(name, format, options...)
	if err != nil {
		return layout.Attribute{}, err
	}
	for _, w := range warnings {
		common.LogWarn("vertex buffer %q: %s", v.label, w)
		if v.onWarning != nil {
			v.onWarning(w)
		}
	}
	return attr, nil
}

func (v *vertexBuffer) WriteAttribute(name string, values []float64, options ...WriteOption) error {
	if v.destroyed {
		return ErrDestroyed
	}
	attr, ok := v.table.Attribute(name)
	if !ok {
		return fmt.Errorf("write %q: %w", name, ErrUnknownAttribute)
	}

	w := newWriteRequest(options...)
	count, err := w.resolveCount(len(values))
	if err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	if count == 0 {
		return nil
	}

	stride := v.table.Stride()
	components := attr.Components()
	componentBytes := attr.ComponentBytes()
	vertexCount := (count + components - 1) / components
	if w.vertexOffset > math.MaxInt/stride-vertexCount {
		return fmt.Errorf("write %q at vertex %d: %w", name, w.vertexOffset, buffer.ErrAllocation)
	}
	required := (w.vertexOffset + vertexCount) * stride

	if required > v.buf.Capacity() {
		if !w.resize {
			return fmt.Errorf("write %q needs %d bytes, capacity is %d: %w", name, required, v.buf.Capacity(), ErrCapacityExceeded)
		}
		if err := v.buf.EnsureCapacity(required); err != nil {
			return fmt.Errorf("write %q: %w", name, err)
		}
	}

	// Records are stride bytes apart; the gap after each record's attribute is stride minus the attribute size.
	view := v.buf.ViewAs(attr.Format.Scalar)
	first := w.vertexOffset*stride + attr.Offset
	pos := first
	for i := 0; i < count; i++ {
		view.SetAt(pos, values[w.sourceOffset+i])
		pos += componentBytes
		if (i+1)%components == 0 {
			pos += stride - attr.ByteSize()
		}
	}

	if required > v.buf.UsedLength() {
		if err := v.buf.SetUsedLength(required); err != nil {
			return err
		}
	}
	if w.markDirty {
		lastRecordScalars := count - (vertexCount-1)*components
		end := first + (vertexCount-1)*stride + lastRecordScalars*componentBytes
		v.dirty.Mark(first, end-first)
	}
	return nil
}

func (v *vertexBuffer) ReadAttribute(name string, vertexIndex int) ([]float64, error) {
	if v.destroyed {
		return nil, ErrDestroyed
	}
	attr, ok := v.table.Attribute(name)
	if !ok {
		return nil, fmt.Errorf("read %q: %w", name, ErrUnknownAttribute)
	}
	start := vertexIndex*v.table.Stride() + attr.Offset
	if vertexIndex < 0 || start+attr.ByteSize() > v.buf.UsedLength() {
		return nil, fmt.Errorf("read %q at vertex %d: %w", name, vertexIndex, ErrVertexRange)
	}

	view := v.buf.ViewAs(attr.Format.Scalar)
	out := make([]float64, attr.Components())
	for i := range out {
		out[i] = view.GetAt(start + i*attr.ComponentBytes())
	}
	return out, nil
}

func (v *vertexBuffer) Freeze() error {
	if v.destroyed {
		return ErrDestroyed
	}
	if v.table.Frozen() {
		return nil
	}
	v.table.Freeze()
	if v.cache == nil {
		return nil
	}
	d, err := v.cache.Acquire(v.table, v.stepMode)
	if err != nil {
		return fmt.Errorf("freeze vertex buffer %q: %w", v.label, err)
	}
	v.shared = &d
	common.LogDebug("vertex buffer %q frozen with layout %q", v.label, d.Signature)
	return nil
}

func (v *vertexBuffer) DrainDirtyRanges() []buffer.DirtyRange {
	return v.dirty.Drain()
}

func (v *vertexBuffer) Destroy() {
	if v.destroyed {
		return
	}
	v.destroyed = true
	if v.shared != nil && v.cache != nil {
		if err := v.cache.Release(v.shared.Signature); err != nil {
			common.LogError("vertex buffer %q: %v", v.label, err)
		}
	}
	v.shared = nil
	v.buf.Free()
	v.dirty.Drain()
}

func (v *vertexBuffer) Label() string {
	return v.label
}

func (v *vertexBuffer) Slot() int {
	return v.slot
}

func (v *vertexBuffer) StepMode() layout.StepMode {
	return v.stepMode
}

func (v *vertexBuffer) Stride() int {
	return v.table.Stride()
}

func (v *vertexBuffer) Attributes() []layout.Attribute {
	return v.table.Attributes()
}

func (v *vertexBuffer) Attribute(name string) (layout.Attribute, bool) {
	return v.table.Attribute(name)
}

func (v *vertexBuffer) Signature() string {
	if v.shared != nil {
		return v.shared.Signature
	}
	return layout_cache.Signature(v.table, v.stepMode)
}

func (v *vertexBuffer) Descriptor() layout_cache.Descriptor {
	if v.shared != nil {
		return *v.shared
	}
	return layout_cache.NewDescriptor(v.table, v.stepMode)
}

func (v *vertexBuffer) Bytes() []byte {
	return v.buf.Bytes()
}

func (v *vertexBuffer) UsedByteLength() int {
	return v.buf.UsedLength()
}

func (v *vertexBuffer) Capacity() int {
	return v.buf.Capacity()
}

func (v *vertexBuffer) VertexCount() int {
	stride := v.table.Stride()
	if stride == 0 {
		return 0
	}
	return v.buf.UsedLength() / stride
}

func (v *vertexBuffer) Frozen() bool {
	return v.table.Frozen()
}

func (v *vertexBuffer) Destroyed() bool {
	return v.destroyed
}

func (v *vertexBuffer) Generation() uint64 {
	return v.buf.Generation()
}

// WriteAttributeData converts values of any numeric type and writes them with WriteAttribute.
//
// Parameters:
//   - vb: the vertex buffer to write to
//   - name: the attribute to write
//   - values: the source values
//   - options: write options, as for WriteAttribute
//
// Returns:
//   - error: any error returned by WriteAttribute
func WriteAttributeData[T common.Numeric](vb VertexBuffer, name string, values []T, options ...WriteOption) error {
	return vb.WriteAttribute(name, common.ToFloat64s(values), options...)
}
