package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/geometry"
	"github.com/Carmen-Shannon/oxy-geometry/engine/index_buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout_cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// docBuilder assembles a single-buffer glTF document in memory.
type docBuilder struct {
	bin []byte
	doc gltfDocument
}

func newDocBuilder() *docBuilder {
	return &docBuilder{doc: gltfDocument{Asset: gltfAsset{Version: "2.0"}}}
}

func (b *docBuilder) view(data []byte, stride int) int {
	for len(b.bin)%4 != 0 {
		b.bin = append(b.bin, 0)
	}
	bv := gltfBufferView{Buffer: 0, ByteOffset: len(b.bin), ByteLength: len(data)}
	if stride > 0 {
		bv.ByteStride = &stride
	}
	b.bin = append(b.bin, data...)
	b.doc.BufferViews = append(b.doc.BufferViews, bv)
	return len(b.doc.BufferViews) - 1
}

func (b *docBuilder) accessor(componentType int, typ string, normalized bool, count int, data []byte) int {
	return b.stridedAccessor(componentType, typ, normalized, count, data, 0)
}

func (b *docBuilder) stridedAccessor(componentType int, typ string, normalized bool, count int, data []byte, stride int) int {
	v := b.view(data, stride)
	b.doc.Accessors = append(b.doc.Accessors, gltfAccessor{
		BufferView:    &v,
		ComponentType: componentType,
		Normalized:    normalized,
		Count:         count,
		Type:          typ,
	})
	return len(b.doc.Accessors) - 1
}

func (b *docBuilder) primitive(attrs map[string]int, indices *int) {
	if len(b.doc.Meshes) == 0 {
		b.doc.Meshes = append(b.doc.Meshes, gltfMesh{Name: "tri"})
	}
	b.doc.Meshes[0].Primitives = append(b.doc.Meshes[0].Primitives, gltfPrimitive{Attributes: attrs, Indices: indices})
}

func (b *docBuilder) gltf(t *testing.T) []byte {
	t.Helper()
	b.doc.Buffers = []gltfBuffer{{
		URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.bin),
		ByteLength: len(b.bin),
	}}
	data, err := json.Marshal(b.doc)
	require.NoError(t, err)
	return data
}

func (b *docBuilder) glb(t *testing.T) []byte {
	t.Helper()
	b.doc.Buffers = []gltfBuffer{{ByteLength: len(b.bin)}}
	jsonData, err := json.Marshal(b.doc)
	require.NoError(t, err)
	for len(jsonData)%4 != 0 {
		jsonData = append(jsonData, ' ')
	}
	bin := append([]byte{}, b.bin...)
	for len(bin)%4 != 0 {
		bin = append(bin, 0)
	}

	var out bytes.Buffer
	total := 12 + 8 + len(jsonData) + 8 + len(bin)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: uint32(total)}))
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(jsonData)), ChunkType: gltfGLBChunkJSON}))
	out.Write(jsonData)
	require.NoError(t, binary.Write(&out, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: uint32(len(bin)), ChunkType: gltfGLBChunkBIN}))
	out.Write(bin)
	return out.Bytes()
}

var trianglePositions = []float32{
	0, 0, 0,
	1, 0, 0,
	0, 1, 0,
}

// triangle adds one indexed triangle with unorm8x4 colors.
func triangle(b *docBuilder) {
	pos := b.accessor(gltfComponentTypeFloat, gltfAccessorTypeVec3, false, 3, common.SliceToBytes(trianglePositions))
	col := b.accessor(gltfComponentTypeUnsignedByte, gltfAccessorTypeVec4, true, 3, []byte{
		255, 255, 255, 255,
		255, 0, 0, 255,
		0, 0, 255, 128,
	})
	idx := b.accessor(gltfComponentTypeUnsignedShort, gltfAccessorTypeScalar, false, 3, common.SliceToBytes([]uint16{0, 1, 2}))
	b.primitive(map[string]int{"POSITION": pos, "COLOR_0": col}, &idx)
}

func TestLoadReaderGLTF(t *testing.T) {
	b := newDocBuilder()
	triangle(b)

	l := NewLoader()
	geometries, err := l.LoadReader("tri", bytes.NewReader(b.gltf(t)), false)
	require.NoError(t, err)
	require.Len(t, geometries, 1)

	g := geometries[0]
	assert.Equal(t, "tri/0", g.Label())
	assert.Equal(t, 3, g.VertexCount())

	vb, ok := g.VertexBuffer(geometry.DefaultBuffer)
	require.True(t, ok)
	assert.Equal(t, 16, vb.Stride())

	pos, ok := vb.Attribute("position")
	require.True(t, ok)
	assert.Equal(t, layout.Float32x3, pos.Format)
	assert.Equal(t, 0, pos.ShaderLocation)

	col, ok := vb.Attribute("color")
	require.True(t, ok)
	assert.Equal(t, layout.Unorm8x4, col.Format)
	assert.Equal(t, 12, col.Offset)
	assert.Equal(t, 1, col.ShaderLocation)

	got, err := vb.ReadAttribute("position", 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, got)
	got, err = vb.ReadAttribute("color", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 255, 128}, got)

	ib := g.IndexBuffer()
	require.NotNil(t, ib)
	assert.Equal(t, index_buffer.IndexFormatUint16, ib.Format())
	assert.Equal(t, 3, ib.Count())
	assert.Equal(t, []byte{0, 0, 1, 0, 2, 0}, ib.Bytes())

	assert.Equal(t, []string{"tri"}, l.Names())
	again, err := l.LoadReader("tri", bytes.NewReader(nil), false)
	require.NoError(t, err)
	assert.Equal(t, geometries, again)
}

func TestLoadGLB(t *testing.T) {
	b := newDocBuilder()
	pos := b.accessor(gltfComponentTypeFloat, gltfAccessorTypeVec3, false, 3, common.SliceToBytes(trianglePositions))
	uv := b.accessor(gltfComponentTypeFloat, gltfAccessorTypeVec2, false, 3, common.SliceToBytes([]float32{0, 0, 1, 0, 0, 1}))
	idx := b.accessor(gltfComponentTypeUnsignedInt, gltfAccessorTypeScalar, false, 3, common.SliceToBytes([]uint32{2, 1, 0}))
	b.primitive(map[string]int{"POSITION": pos, "TEXCOORD_0": uv}, &idx)

	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, os.WriteFile(path, b.glb(t), 0o644))

	l := NewLoader(WithAttributeName("TEXCOORD_0", "texcoord"))
	geometries, err := l.Load(path)
	require.NoError(t, err)
	require.Len(t, geometries, 1)

	vb, _ := geometries[0].VertexBuffer(geometry.DefaultBuffer)
	tc, ok := vb.Attribute("texcoord")
	require.True(t, ok)
	assert.Equal(t, layout.Float32x2, tc.Format)
	assert.Equal(t, 20, vb.Stride())

	ib := geometries[0].IndexBuffer()
	assert.Equal(t, index_buffer.IndexFormatUint32, ib.Format())
	assert.Equal(t, common.SliceToBytes([]uint32{2, 1, 0}), ib.Bytes())

	cached, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, geometries, cached)
}

func TestLoadExternalBuffer(t *testing.T) {
	b := newDocBuilder()
	triangle(b)
	b.doc.Buffers = []gltfBuffer{{URI: "tri.bin", ByteLength: len(b.bin)}}
	data, err := json.Marshal(b.doc)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.bin"), b.bin, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.gltf"), data, 0o644))

	geometries, err := NewLoader().Load(filepath.Join(dir, "tri.gltf"))
	require.NoError(t, err)
	require.Len(t, geometries, 1)
	assert.Equal(t, 3, geometries[0].VertexCount())
}

func TestStridedAccessor(t *testing.T) {
	// Positions interleaved with 4 bytes of padding per vertex.
	var interleaved []float32
	for i := 0; i < 3; i++ {
		interleaved = append(interleaved, trianglePositions[i*3:i*3+3]...)
		interleaved = append(interleaved, 99)
	}
	b := newDocBuilder()
	pos := b.stridedAccessor(gltfComponentTypeFloat, gltfAccessorTypeVec3, false, 3, common.SliceToBytes(interleaved), 16)
	b.primitive(map[string]int{"POSITION": pos}, nil)

	geometries, err := NewLoader().LoadReader("strided", bytes.NewReader(b.gltf(t)), false)
	require.NoError(t, err)
	g := geometries[0]
	assert.False(t, g.Indexed())

	vb, _ := g.VertexBuffer(geometry.DefaultBuffer)
	got, err := vb.ReadAttribute("position", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0}, got)
}

func TestUnfetchableFormatIsWidened(t *testing.T) {
	b := newDocBuilder()
	pos := b.accessor(gltfComponentTypeFloat, gltfAccessorTypeVec3, false, 3, common.SliceToBytes(trianglePositions))
	col := b.accessor(gltfComponentTypeUnsignedByte, gltfAccessorTypeVec3, true, 3, []byte{
		255, 0, 51,
		0, 255, 0,
		0, 0, 255,
	})
	b.primitive(map[string]int{"POSITION": pos, "COLOR_0": col}, nil)

	geometries, err := NewLoader().LoadReader("rgb", bytes.NewReader(b.gltf(t)), false)
	require.NoError(t, err)

	vb, _ := geometries[0].VertexBuffer(geometry.DefaultBuffer)
	c, ok := vb.Attribute("color")
	require.True(t, ok)
	assert.Equal(t, layout.Float32x3, c.Format)

	got, err := vb.ReadAttribute("color", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 1e-6)
	assert.InDelta(t, 0.0, got[1], 1e-6)
	assert.InDelta(t, 0.2, got[2], 1e-6)
}

func TestSharedLayoutsAndRelease(t *testing.T) {
	b := newDocBuilder()
	triangle(b)
	triangle(b)

	cache := layout_cache.NewLayoutCache()
	l := NewLoader(WithLayoutCache(cache))
	geometries, err := l.LoadReader("pair", bytes.NewReader(b.gltf(t)), false)
	require.NoError(t, err)
	require.Len(t, geometries, 2)

	for _, g := range geometries {
		require.NoError(t, g.Freeze())
	}
	assert.Equal(t, geometries[0].LayoutsKey(), geometries[1].LayoutsKey())
	assert.Equal(t, 1, cache.Len())

	assert.True(t, l.Release("pair"))
	assert.False(t, l.Release("pair"))
	assert.Nil(t, l.Get("pair"))
	assert.True(t, geometries[0].Destroyed())
	assert.Equal(t, 0, cache.Len())
}

func TestPrebuiltGeometries(t *testing.T) {
	g, err := geometry.NewGeometry(nil)
	require.NoError(t, err)

	l := NewLoader(WithGeometries("quad", []geometry.Geometry{g}))
	assert.Equal(t, []geometry.Geometry{g}, l.Get("quad"))
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing position", func(t *testing.T) {
		b := newDocBuilder()
		n := b.accessor(gltfComponentTypeFloat, gltfAccessorTypeVec3, false, 3, common.SliceToBytes(trianglePositions))
		b.primitive(map[string]int{"NORMAL": n}, nil)
		_, err := NewLoader().LoadReader("x", bytes.NewReader(b.gltf(t)), false)
		assert.ErrorIs(t, err, ErrMissingPosition)
	})

	t.Run("line mode", func(t *testing.T) {
		b := newDocBuilder()
		triangle(b)
		mode := 1
		b.doc.Meshes[0].Primitives[0].Mode = &mode
		_, err := NewLoader().LoadReader("x", bytes.NewReader(b.gltf(t)), false)
		assert.ErrorIs(t, err, ErrUnsupportedPrimitiveMode)
	})

	t.Run("version", func(t *testing.T) {
		b := newDocBuilder()
		triangle(b)
		b.doc.Asset.Version = "1.0"
		_, err := NewLoader().LoadReader("x", bytes.NewReader(b.gltf(t)), false)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("count mismatch", func(t *testing.T) {
		b := newDocBuilder()
		pos := b.accessor(gltfComponentTypeFloat, gltfAccessorTypeVec3, false, 3, common.SliceToBytes(trianglePositions))
		n := b.accessor(gltfComponentTypeFloat, gltfAccessorTypeVec3, false, 2, common.SliceToBytes(trianglePositions[:6]))
		b.primitive(map[string]int{"POSITION": pos, "NORMAL": n}, nil)
		_, err := NewLoader().LoadReader("x", bytes.NewReader(b.gltf(t)), false)
		assert.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("matrix accessor", func(t *testing.T) {
		b := newDocBuilder()
		pos := b.accessor(gltfComponentTypeFloat, "MAT4", false, 1, make([]byte, 64))
		b.primitive(map[string]int{"POSITION": pos}, nil)
		_, err := NewLoader().LoadReader("x", bytes.NewReader(b.gltf(t)), false)
		assert.ErrorIs(t, err, ErrUnsupportedAccessor)
	})

	t.Run("truncated buffer", func(t *testing.T) {
		b := newDocBuilder()
		triangle(b)
		b.doc.Accessors[0].Count = 100
		_, err := NewLoader().LoadReader("x", bytes.NewReader(b.gltf(t)), false)
		assert.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("negative count", func(t *testing.T) {
		b := newDocBuilder()
		triangle(b)
		b.doc.Accessors[0].Count = -1
		_, err := NewLoader().LoadReader("x", bytes.NewReader(b.gltf(t)), false)
		assert.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("oversized glb chunk", func(t *testing.T) {
		var data bytes.Buffer
		require.NoError(t, binary.Write(&data, binary.LittleEndian, gltfGLBHeader{Magic: gltfGLBMagic, Version: gltfGLBVersion, Length: 28}))
		require.NoError(t, binary.Write(&data, binary.LittleEndian, gltfGLBChunkHeader{ChunkLength: 0xFFFFFFF0, ChunkType: gltfGLBChunkJSON}))
		data.WriteString("{}  ")
		_, err := NewLoader().LoadReader("x", bytes.NewReader(data.Bytes()), true)
		assert.ErrorIs(t, err, ErrMalformedDocument)
	})

	t.Run("bad glb magic", func(t *testing.T) {
		_, err := NewLoader().LoadReader("x", bytes.NewReader(make([]byte, 16)), true)
		assert.ErrorIs(t, err, ErrMalformedDocument)
	})
}
