package vertex_buffer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-geometry/engine/buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout_cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float32At(b []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[offset : offset+4]))
}

func newPositionColor(t *testing.T, cache layout_cache.LayoutCache, options ...VertexBufferBuilderOption) VertexBuffer {
	t.Helper()
	options = append([]VertexBufferBuilderOption{
		WithAttribute("position", layout.Float32x3),
		WithAttribute("color", layout.Uint8x4),
	}, options...)
	vb, err := NewVertexBuffer("mesh", cache, options...)
	require.NoError(t, err)
	return vb
}

func TestInterleavedPositionColor(t *testing.T) {
	vb := newPositionColor(t, nil)
	assert.Equal(t, 16, vb.Stride())

	pos, ok := vb.Attribute("position")
	require.True(t, ok)
	col, ok := vb.Attribute("color")
	require.True(t, ok)
	assert.Equal(t, 0, pos.Offset)
	assert.Equal(t, 12, col.Offset)

	require.NoError(t, vb.WriteAttribute("position", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0}))
	require.NoError(t, vb.WriteAttribute("color", []float64{255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 255}))

	b := vb.Bytes()
	require.Len(t, b, 48)
	assert.Equal(t, 3, vb.VertexCount())

	expectedPositions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}
	expectedColors := [][]byte{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}}
	for i := 0; i < 3; i++ {
		record := b[i*16 : (i+1)*16]
		for c := 0; c < 3; c++ {
			assert.Equal(t, expectedPositions[i][c], float32At(record, c*4), "record %d component %d", i, c)
		}
		assert.Equal(t, expectedColors[i], record[12:16], "record %d color", i)
	}
}

func TestExplicitOverlapIsAWarning(t *testing.T) {
	var warnings []layout.Warning
	vb, err := NewVertexBuffer("packed", nil,
		WithWarningHandler(func(w layout.Warning) { warnings = append(warnings, w) }),
		WithAttribute("position", layout.Float32x3, layout.WithOffset(0)),
		WithAttribute("extra", layout.Float32x2, layout.WithOffset(8)),
	)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, layout.OverlapWarning, warnings[0].Kind)
	assert.Equal(t, "extra", warnings[0].Attribute)
	assert.Equal(t, "position", warnings[0].Other)
	assert.Equal(t, 16, vb.Stride())

	require.NoError(t, vb.WriteAttribute("position", []float64{1, 2, 3, 4, 5, 6}))
	require.NoError(t, vb.WriteAttribute("extra", []float64{9, 8, 7, 6}))

	b := vb.Bytes()
	for i, want := range [][4]float32{{1, 2, 9, 8}, {4, 5, 7, 6}} {
		for c := 0; c < 4; c++ {
			assert.Equal(t, want[c], float32At(b, i*16+c*4))
		}
	}
}

func TestWriteRoundTripWithVertexOffset(t *testing.T) {
	vb, err := NewVertexBuffer("offset", nil,
		WithAttribute("position", layout.Float32x3),
		WithAttribute("uv", layout.MustParseFormat("float16x2")),
		WithAttribute("weight", layout.MustParseFormat("sint16x2")),
	)
	require.NoError(t, err)
	assert.Equal(t, 20, vb.Stride())

	require.NoError(t, vb.WriteAttribute("position", []float64{1, 2, 3, 4, 5, 6}))
	require.NoError(t, vb.WriteAttribute("position", []float64{7, 8, 9, 10, 11, 12}, WithVertexOffset(3)))
	require.NoError(t, vb.WriteAttribute("uv", []float64{0.5, 0.25, 1, 2}, WithVertexOffset(3)))
	require.NoError(t, vb.WriteAttribute("weight", []float64{-1, 2, -3, 4}, WithVertexOffset(3)))
	assert.Equal(t, 5, vb.VertexCount())

	cases := map[int]map[string][]float64{
		0: {"position": {1, 2, 3}, "uv": {0, 0}, "weight": {0, 0}},
		1: {"position": {4, 5, 6}, "uv": {0, 0}, "weight": {0, 0}},
		2: {"position": {0, 0, 0}, "uv": {0, 0}, "weight": {0, 0}},
		3: {"position": {7, 8, 9}, "uv": {0.5, 0.25}, "weight": {-1, 2}},
		4: {"position": {10, 11, 12}, "uv": {1, 2}, "weight": {-3, 4}},
	}
	for vertex, attrs := range cases {
		for name, want := range attrs {
			got, err := vb.ReadAttribute(name, vertex)
			require.NoError(t, err)
			assert.Equal(t, want, got, "vertex %d attribute %s", vertex, name)
		}
	}

	_, err = vb.ReadAttribute("position", 5)
	assert.ErrorIs(t, err, ErrVertexRange)
	_, err = vb.ReadAttribute("position", -1)
	assert.ErrorIs(t, err, ErrVertexRange)
}

func TestWriteSourceWindow(t *testing.T) {
	vb := newPositionColor(t, nil)

	src := []float64{99, 99, 1, 2, 3, 4, 5, 6, 99}
	require.NoError(t, vb.WriteAttribute("position", src, WithSourceOffset(2), WithCount(6)))
	assert.Equal(t, 2, vb.VertexCount())

	got, err := vb.ReadAttribute("position", 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6}, got)

	assert.ErrorIs(t, vb.WriteAttribute("position", src, WithSourceOffset(10)), ErrSourceRange)
	assert.ErrorIs(t, vb.WriteAttribute("position", src, WithSourceOffset(4), WithCount(6)), ErrSourceRange)
	assert.ErrorIs(t, vb.WriteAttribute("position", src, WithVertexOffset(-1)), ErrSourceRange)
	assert.NoError(t, vb.WriteAttribute("position", nil))
}

func TestDirtyRangesCoverWrites(t *testing.T) {
	vb := newPositionColor(t, nil)

	require.NoError(t, vb.WriteAttribute("position", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0}, WithMarkDirty(true)))
	require.NoError(t, vb.WriteAttribute("color", []float64{255, 0, 0, 255, 0, 255, 0, 255, 0, 0, 255, 255}, WithMarkDirty(true)))
	require.NoError(t, vb.WriteAttribute("color", []float64{1, 2}, WithVertexOffset(1), WithMarkDirty(true)))
	require.NoError(t, vb.WriteAttribute("position", []float64{5, 5, 5}))

	assert.Equal(t, []buffer.DirtyRange{
		{Offset: 0, Length: 44},
		{Offset: 12, Length: 36},
		{Offset: 28, Length: 2},
	}, vb.DrainDirtyRanges())
	assert.Nil(t, vb.DrainDirtyRanges())
}

func TestWriteWithoutResize(t *testing.T) {
	vb := newPositionColor(t, nil, WithBufferOptions(buffer.WithInitialCapacity(32)))

	err := vb.WriteAttribute("position", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, WithResize(false), WithMarkDirty(true))
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 0, vb.UsedByteLength())
	assert.Equal(t, 32, vb.Capacity())
	assert.Nil(t, vb.DrainDirtyRanges())

	require.NoError(t, vb.WriteAttribute("position", []float64{1, 2, 3, 4, 5, 6}, WithResize(false)))
	assert.Equal(t, 32, vb.UsedByteLength())
}

func TestWriteRejectsOverflowingVertexOffset(t *testing.T) {
	vb := newPositionColor(t, nil)
	require.NoError(t, vb.WriteAttribute("position", []float64{1, 2, 3}))

	for _, offset := range []int{math.MaxInt/16 + 1, math.MaxInt / 16, math.MaxInt} {
		err := vb.WriteAttribute("position", []float64{4, 5, 6}, WithVertexOffset(offset), WithMarkDirty(true))
		assert.ErrorIs(t, err, buffer.ErrAllocation, "offset %d", offset)
	}
	assert.Equal(t, 16, vb.UsedByteLength())
	assert.Nil(t, vb.DrainDirtyRanges())
}

func TestWriteGrowsStorage(t *testing.T) {
	vb := newPositionColor(t, nil)
	gen := vb.Generation()

	values := make([]float64, 3*100)
	for i := range values {
		values[i] = float64(i)
	}
	require.NoError(t, vb.WriteAttribute("position", values))
	assert.Equal(t, 1600, vb.UsedByteLength())
	assert.Equal(t, 2048, vb.Capacity())
	assert.NotEqual(t, gen, vb.Generation())

	got, err := vb.ReadAttribute("position", 99)
	require.NoError(t, err)
	assert.Equal(t, []float64{297, 298, 299}, got)
}

func TestWriteAttributeData(t *testing.T) {
	vb := newPositionColor(t, nil)
	require.NoError(t, WriteAttributeData(vb, "position", []float32{1.5, 2.5, 3.5}))
	require.NoError(t, WriteAttributeData(vb, "color", []uint8{10, 20, 30, 40}))

	assert.Equal(t, []byte{10, 20, 30, 40}, vb.Bytes()[12:16])
	got, err := vb.ReadAttribute("position", 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, got)
}

func TestVertexBufferErrors(t *testing.T) {
	_, err := NewVertexBuffer("dup", nil,
		WithAttribute("position", layout.Float32x3),
		WithAttribute("position", layout.Float32x2),
	)
	assert.ErrorIs(t, err, layout.ErrDuplicateAttribute)

	vb := newPositionColor(t, nil)
	assert.ErrorIs(t, vb.WriteAttribute("normal", []float64{1}), ErrUnknownAttribute)
	_, err = vb.ReadAttribute("normal", 0)
	assert.ErrorIs(t, err, ErrUnknownAttribute)

	_, err = vb.DeclareAttribute("bad", layout.Format{Scalar: layout.ScalarFloat32, Components: 5})
	assert.ErrorIs(t, err, layout.ErrInvalidComponentCount)

	require.NoError(t, vb.Freeze())
	require.NoError(t, vb.Freeze())
	_, err = vb.DeclareAttribute("normal", layout.Float32x3)
	assert.ErrorIs(t, err, layout.ErrFrozenLayoutMutation)
	assert.NoError(t, vb.WriteAttribute("position", []float64{1, 2, 3}))

	vb.Destroy()
	vb.Destroy()
	assert.True(t, vb.Destroyed())
	assert.ErrorIs(t, vb.WriteAttribute("position", []float64{1, 2, 3}), ErrDestroyed)
	assert.ErrorIs(t, vb.Freeze(), ErrDestroyed)
	assert.Equal(t, 0, vb.Capacity())
}

func TestEqualLayoutsShareACacheEntry(t *testing.T) {
	var evicted []string
	cache := layout_cache.NewLayoutCache(layout_cache.WithEvictionHandler(func(d layout_cache.Descriptor) {
		evicted = append(evicted, d.Signature)
	}))

	a := newPositionColor(t, cache)
	b, err := NewVertexBuffer("reordered", cache,
		WithAttribute("color", layout.Uint8x4, layout.WithOffset(12), layout.WithShaderLocation(1)),
		WithAttribute("position", layout.Float32x3, layout.WithOffset(0), layout.WithShaderLocation(0)),
	)
	require.NoError(t, err)
	assert.Equal(t, a.Signature(), b.Signature())

	require.NoError(t, a.Freeze())
	require.NoError(t, b.Freeze())
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 2, cache.References(a.Signature()))
	assert.Equal(t, a.Descriptor(), b.Descriptor())

	sig := a.Signature()
	a.Destroy()
	assert.Equal(t, 1, cache.References(sig))
	assert.Empty(t, evicted)

	b.Destroy()
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, []string{sig}, evicted)
}

func TestStepModeAndSlot(t *testing.T) {
	cache := layout_cache.NewLayoutCache()
	perVertex := newPositionColor(t, cache)
	perInstance := newPositionColor(t, cache, WithStepMode(layout.StepModeInstance), WithSlot(1))

	assert.Equal(t, 1, perInstance.Slot())
	assert.Equal(t, layout.StepModeInstance, perInstance.StepMode())
	assert.NotEqual(t, perVertex.Signature(), perInstance.Signature())

	require.NoError(t, perVertex.Freeze())
	require.NoError(t, perInstance.Freeze())
	assert.Equal(t, 2, cache.Len())
}

func TestDescriptorBeforeFreeze(t *testing.T) {
	vb := newPositionColor(t, nil, WithShaderLocationOffset(2), WithStride(32))
	d := vb.Descriptor()
	assert.Equal(t, 48, d.Stride)
	assert.Equal(t, layout.StepModeVertex, d.StepMode)
	require.Len(t, d.Attributes, 2)
	assert.Equal(t, 2, d.Attributes[0].ShaderLocation)
	assert.Equal(t, 32, d.Attributes[0].Offset)
	assert.Equal(t, "color", d.Attributes[1].Name)
	assert.Equal(t, d.Signature, vb.Signature())
}
