package geometry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/config"
	"github.com/Carmen-Shannon/oxy-geometry/engine/index_buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout_cache"
	"github.com/Carmen-Shannon/oxy-geometry/engine/vertex_buffer"
	"github.com/google/uuid"
)

// DefaultBuffer is the name of the vertex buffer default attributes are declared in.
const DefaultBuffer = "default"

// geometry is the implementation of the Geometry interface.
type geometry struct {
	id    uuid.UUID
	label string
	cache layout_cache.LayoutCache

	buffers         map[string]vertex_buffer.VertexBuffer
	slots           map[int]string
	locations       map[int]string
	attributeBuffer map[string]string
	index           index_buffer.IndexBuffer

	defaults      []config.AttributeConfig
	formats       map[string]layout.Format
	indexed       bool
	indexFormat   index_buffer.IndexFormat
	bufferOptions []buffer.BufferBuilderOption
	onWarning     func(layout.Warning)

	destroyed bool
}

// Geometry groups the vertex buffers and optional index buffer of one mesh. Attribute names and shader locations
// are unique across all of its vertex buffers, and each vertex buffer occupies its own slot.
type Geometry interface {
	// CreateBuffer adds an empty vertex buffer.
	//
	// Parameters:
	//   - name: the buffer name, unique within the geometry
	//   - options: slot, step mode or stride
	//
	// Returns:
	//   - vertex_buffer.VertexBuffer: the new buffer
	//   - error: ErrDuplicateBuffer, ErrSlotInUse or ErrDestroyed
	CreateBuffer(name string, options ...BufferOption) (vertex_buffer.VertexBuffer, error)

	// CreateAttribute declares an attribute in one of the geometry's vertex buffers. Without an explicit shader
	// location the smallest location not used by any attribute of the geometry is assigned.
	//
	// Parameters:
	//   - name: the attribute name, unique within the geometry
	//   - format: the attribute format
	//   - options: target buffer, shader location or offset
	//
	// Returns:
	//   - layout.Attribute: the declared attribute
	//   - error: ErrDuplicateAttribute, ErrUnknownBuffer, ErrShaderLocationInUse, ErrDestroyed or a layout error
	CreateAttribute(name string, format layout.Format, options ...AttributeOption) (layout.Attribute, error)

	// SetAttribute writes values to the named attribute in whichever buffer holds it. Writes are marked dirty
	// unless the options say otherwise.
	//
	// Parameters:
	//   - name: the attribute to write
	//   - values: the source scalars
	//   - options: vertex buffer write options
	//
	// Returns:
	//   - error: ErrUnknownAttribute, ErrDestroyed or a vertex buffer write error
	SetAttribute(name string, values []float64, options ...vertex_buffer.WriteOption) error

	// SetIndices writes indices at an element offset. Writes are marked dirty unless the options say otherwise.
	//
	// Parameters:
	//   - values: the indices
	//   - offset: the first element to write
	//   - options: index buffer write options
	//
	// Returns:
	//   - error: ErrNotIndexed, ErrDestroyed or an index buffer write error
	SetIndices(values []uint32, offset int, options ...index_buffer.WriteOption) error

	// Freeze freezes every vertex buffer, acquiring their layouts from the cache.
	//
	// Returns:
	//   - error: the first freeze error
	Freeze() error

	// LayoutsKey identifies the combination of vertex buffer layouts: every buffer's signature ordered by buffer name
	// and joined with ":". Geometries with equal keys can be drawn with the same pipeline.
	LayoutsKey() string

	// VertexBuffers returns the vertex buffers ordered by slot.
	VertexBuffers() []vertex_buffer.VertexBuffer
	VertexBuffer(name string) (vertex_buffer.VertexBuffer, bool)

	// IndexBuffer returns the index buffer, or nil for a non-indexed geometry.
	IndexBuffer() index_buffer.IndexBuffer
	Indexed() bool

	// VertexCount returns the number of complete vertices, the smallest record count over per-vertex buffers.
	VertexCount() int

	// Destroy destroys every buffer, releasing their cached layouts. Calling Destroy again does nothing.
	Destroy()
	Destroyed() bool
	ID() uuid.UUID
	Label() string
}

var _ Geometry = &geometry{}

// NewGeometry creates a geometry. Unless WithoutDefaults is given it contains a "default" vertex buffer in slot 0
// holding position (float32x3) and color (uint8x4), the layout the mesh renderer expects.
//
// Parameters:
//   - cache: the layout cache vertex buffers acquire their descriptors from; may be nil
//   - options: a variadic list of GeometryBuilderOption functions to configure the geometry
//
// Returns:
//   - Geometry: the new geometry
//   - error: an error raised while creating the default buffers or the index buffer
func NewGeometry(cache layout_cache.LayoutCache, options ...GeometryBuilderOption) (Geometry, error) {
	defaults := config.Default()
	g := &geometry{
		id:              uuid.New(),
		cache:           cache,
		buffers:         make(map[string]vertex_buffer.VertexBuffer),
		slots:           make(map[int]string),
		locations:       make(map[int]string),
		attributeBuffer: make(map[string]string),
		defaults:        defaults.Geometry.DefaultAttributes,
		formats:         make(map[string]layout.Format),
		indexFormat:     index_buffer.IndexFormatUint32,
	}
	for _, opt := range options {
		opt(g)
	}
	g.label = common.Coalesce(g.label, "geometry "+g.id.String())

	if len(g.defaults) > 0 {
		if _, err := g.CreateBuffer(DefaultBuffer); err != nil {
			return nil, err
		}
		for _, a := range g.defaults {
			if err := g.createDefaultAttribute(a); err != nil {
				g.Destroy()
				return nil, fmt.Errorf("geometry %q: %w", g.label, err)
			}
		}
	}

	if g.indexed {
		ib, err := index_buffer.NewIndexBuffer(g.label+" indices", g.indexFormat, index_buffer.WithBufferOptions(g.bufferOptions...))
		if err != nil {
			g.Destroy()
			return nil, fmt.Errorf("geometry %q: %w", g.label, err)
		}
		g.index = ib
	}
	return g, nil
}

func (g *geometry) createDefaultAttribute(a config.AttributeConfig) error {
	bufferName := common.Coalesce(a.Buffer, DefaultBuffer)
	if _, ok := g.buffers[bufferName]; !ok {
		if _, err := g.CreateBuffer(bufferName); err != nil {
			return err
		}
	}

	format := a.Format
	if f, ok := g.formats[a.Name]; ok {
		format = f
	}
	opts := []AttributeOption{InBuffer(bufferName)}
	if a.ShaderLocation != nil {
		opts = append(opts, AtShaderLocation(*a.ShaderLocation))
	}
	if a.Offset != nil {
		opts = append(opts, AtOffset(*a.Offset))
	}
	_, err := g.CreateAttribute(a.Name, format, opts...)
	return err
}

func (g *geometry) CreateBuffer(name string, options ...BufferOption) (vertex_buffer.VertexBuffer, error) {
	if g.destroyed {
		return nil, ErrDestroyed
	}
	if _, ok := g.buffers[name]; ok {
		return nil, fmt.Errorf("buffer %q: %w", name, ErrDuplicateBuffer)
	}

	req := bufferRequest{stepMode: layout.StepModeVertex}
	for _, opt := range options {
		opt(&req)
	}
	slot := smallestFree(g.slots)
	if req.slot != nil {
		slot = *req.slot
		if slot < 0 {
			return nil, fmt.Errorf("buffer %q slot %d: %w", name, slot, ErrSlotInUse)
		}
		if owner, ok := g.slots[slot]; ok {
			return nil, fmt.Errorf("buffer %q slot %d held by %q: %w", name, slot, owner, ErrSlotInUse)
		}
	}

	vbOpts := []vertex_buffer.VertexBufferBuilderOption{
		vertex_buffer.WithSlot(slot),
		vertex_buffer.WithStepMode(req.stepMode),
		vertex_buffer.WithBufferOptions(g.bufferOptions...),
	}
	if req.stride > 0 {
		vbOpts = append(vbOpts, vertex_buffer.WithStride(req.stride))
	}
	if g.onWarning != nil {
		vbOpts = append(vbOpts, vertex_buffer.WithWarningHandler(g.onWarning))
	}
	vb, err := vertex_buffer.NewVertexBuffer(fmt.Sprintf("%s %s", g.label, name), g.cache, vbOpts...)
	if err != nil {
		return nil, err
	}
	g.buffers[name] = vb
	g.slots[slot] = name
	return vb, nil
}

func (g *geometry) CreateAttribute(name string, format layout.Format, options ...AttributeOption) (layout.Attribute, error) {
	if g.destroyed {
		return layout.Attribute{}, ErrDestroyed
	}
	if owner, ok := g.attributeBuffer[name]; ok {
		return layout.Attribute{}, fmt.Errorf("attribute %q in buffer %q: %w", name, owner, ErrDuplicateAttribute)
	}

	req := attributeRequest{buffer: DefaultBuffer}
	for _, opt := range options {
		opt(&req)
	}
	vb, ok := g.buffers[req.buffer]
	if !ok {
		return layout.Attribute{}, fmt.Errorf("attribute %q: buffer %q: %w", name, req.buffer, ErrUnknownBuffer)
	}

	location := smallestFree(g.locations)
	if req.shaderLocation != nil {
		location = *req.shaderLocation
		if owner, ok := g.locations[location]; ok {
			return layout.Attribute{}, fmt.Errorf("attribute %q location %d held by %q: %w", name, location, owner, ErrShaderLocationInUse)
		}
	}

	declOpts := []layout.DeclareOption{layout.WithShaderLocation(location)}
	if req.offset != nil {
		declOpts = append(declOpts, layout.WithOffset(*req.offset))
	}
	attr, err := vb.DeclareAttribute(name, format, declOpts...)
	if err != nil {
		return layout.Attribute{}, err
	}
	g.attributeBuffer[name] = req.buffer
	g.locations[location] = name
	return attr, nil
}

func (g *geometry) SetAttribute(name string, values []float64, options ...vertex_buffer.WriteOption) error {
	if g.destroyed {
		return ErrDestroyed
	}
	bufferName, ok := g.attributeBuffer[name]
	if !ok {
		return fmt.Errorf("set attribute %q: %w", name, ErrUnknownAttribute)
	}
	opts := append([]vertex_buffer.WriteOption{vertex_buffer.WithMarkDirty(true)}, options...)
	return g.buffers[bufferName].WriteAttribute(name, values, opts...)
}

func (g *geometry) SetIndices(values []uint32, offset int, options ...index_buffer.WriteOption) error {
	if g.destroyed {
		return ErrDestroyed
	}
	if g.index == nil {
		return ErrNotIndexed
	}
	opts := append([]index_buffer.WriteOption{index_buffer.WithMarkDirty(true)}, options...)
	return g.index.WriteIndices(values, offset, opts...)
}

func (g *geometry) Freeze() error {
	if g.destroyed {
		return ErrDestroyed
	}
	for _, vb := range g.VertexBuffers() {
		if err := vb.Freeze(); err != nil {
			return fmt.Errorf("geometry %q: %w", g.label, err)
		}
	}
	return nil
}

func (g *geometry) LayoutsKey() string {
	names := make([]string, 0, len(g.buffers))
	for name := range g.buffers {
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = g.buffers[name].Signature()
	}
	return strings.Join(keys, ":")
}

func (g *geometry) VertexBuffers() []vertex_buffer.VertexBuffer {
	slots := make([]int, 0, len(g.slots))
	for slot := range g.slots {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	out := make([]vertex_buffer.VertexBuffer, len(slots))
	for i, slot := range slots {
		out[i] = g.buffers[g.slots[slot]]
	}
	return out
}

func (g *geometry) VertexBuffer(name string) (vertex_buffer.VertexBuffer, bool) {
	vb, ok := g.buffers[name]
	return vb, ok
}

func (g *geometry) IndexBuffer() index_buffer.IndexBuffer {
	return g.index
}

func (g *geometry) Indexed() bool {
	return g.index != nil
}

func (g *geometry) VertexCount() int {
	count := -1
	for _, vb := range g.buffers {
		if vb.StepMode() != layout.StepModeVertex || len(vb.Attributes()) == 0 {
			continue
		}
		if n := vb.VertexCount(); count < 0 || n < count {
			count = n
		}
	}
	return max(count, 0)
}

func (g *geometry) Destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true
	for _, vb := range g.buffers {
		vb.Destroy()
	}
	if g.index != nil {
		g.index.Destroy()
	}
	common.LogDebug("geometry %q destroyed", g.label)
}

func (g *geometry) Destroyed() bool {
	return g.destroyed
}

func (g *geometry) ID() uuid.UUID {
	return g.id
}

func (g *geometry) Label() string {
	return g.label
}

// smallestFree returns the smallest non-negative key missing from used.
func smallestFree(used map[int]string) int {
	n := 0
	for {
		if _, ok := used[n]; !ok {
			return n
		}
		n++
	}
}

// LayoutGroup is a set of geometries sharing one layouts key.
type LayoutGroup struct {
	Key        string
	Geometries []Geometry
}

// GroupByLayout partitions geometries by LayoutsKey so each group can be drawn with one pipeline.
// Groups are ordered by key and keep the input order within a group.
//
// Parameters:
//   - geometries: the geometries to group
//
// Returns:
//   - []LayoutGroup: one group per distinct layouts key
func GroupByLayout(geometries []Geometry) []LayoutGroup {
	index := make(map[string]int)
	var groups []LayoutGroup
	for _, g := range geometries {
		key := g.LayoutsKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, LayoutGroup{Key: key})
		}
		groups[i].Geometries = append(groups[i].Geometries, g)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Key < groups[b].Key
	})
	return groups
}
