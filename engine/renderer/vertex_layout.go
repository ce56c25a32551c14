package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-geometry/engine/geometry"
	"github.com/Carmen-Shannon/oxy-geometry/engine/index_buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout_cache"
	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormatMap maps every layout format WebGPU can fetch to its vertex format. WebGPU has no 8 or 16 bit
// formats with one or three components.
var vertexFormatMap = map[layout.Format]wgpu.VertexFormat{
	{Scalar: layout.ScalarUint8, Components: 2}:   wgpu.VertexFormatUint8x2,
	{Scalar: layout.ScalarUint8, Components: 4}:   wgpu.VertexFormatUint8x4,
	{Scalar: layout.ScalarSint8, Components: 2}:   wgpu.VertexFormatSint8x2,
	{Scalar: layout.ScalarSint8, Components: 4}:   wgpu.VertexFormatSint8x4,
	{Scalar: layout.ScalarUnorm8, Components: 2}:  wgpu.VertexFormatUnorm8x2,
	{Scalar: layout.ScalarUnorm8, Components: 4}:  wgpu.VertexFormatUnorm8x4,
	{Scalar: layout.ScalarSnorm8, Components: 2}:  wgpu.VertexFormatSnorm8x2,
	{Scalar: layout.ScalarSnorm8, Components: 4}:  wgpu.VertexFormatSnorm8x4,
	{Scalar: layout.ScalarUint16, Components: 2}:  wgpu.VertexFormatUint16x2,
	{Scalar: layout.ScalarUint16, Components: 4}:  wgpu.VertexFormatUint16x4,
	{Scalar: layout.ScalarSint16, Components: 2}:  wgpu.VertexFormatSint16x2,
	{Scalar: layout.ScalarSint16, Components: 4}:  wgpu.VertexFormatSint16x4,
	{Scalar: layout.ScalarUnorm16, Components: 2}: wgpu.VertexFormatUnorm16x2,
	{Scalar: layout.ScalarUnorm16, Components: 4}: wgpu.VertexFormatUnorm16x4,
	{Scalar: layout.ScalarSnorm16, Components: 2}: wgpu.VertexFormatSnorm16x2,
	{Scalar: layout.ScalarSnorm16, Components: 4}: wgpu.VertexFormatSnorm16x4,
	{Scalar: layout.ScalarFloat16, Components: 2}: wgpu.VertexFormatFloat16x2,
	{Scalar: layout.ScalarFloat16, Components: 4}: wgpu.VertexFormatFloat16x4,
	{Scalar: layout.ScalarFloat32, Components: 1}: wgpu.VertexFormatFloat32,
	{Scalar: layout.ScalarFloat32, Components: 2}: wgpu.VertexFormatFloat32x2,
	{Scalar: layout.ScalarFloat32, Components: 3}: wgpu.VertexFormatFloat32x3,
	{Scalar: layout.ScalarFloat32, Components: 4}: wgpu.VertexFormatFloat32x4,
	{Scalar: layout.ScalarUint32, Components: 1}:  wgpu.VertexFormatUint32,
	{Scalar: layout.ScalarUint32, Components: 2}:  wgpu.VertexFormatUint32x2,
	{Scalar: layout.ScalarUint32, Components: 3}:  wgpu.VertexFormatUint32x3,
	{Scalar: layout.ScalarUint32, Components: 4}:  wgpu.VertexFormatUint32x4,
	{Scalar: layout.ScalarSint32, Components: 1}:  wgpu.VertexFormatSint32,
	{Scalar: layout.ScalarSint32, Components: 2}:  wgpu.VertexFormatSint32x2,
	{Scalar: layout.ScalarSint32, Components: 3}:  wgpu.VertexFormatSint32x3,
	{Scalar: layout.ScalarSint32, Components: 4}:  wgpu.VertexFormatSint32x4,
}

// VertexFormat converts a layout format to a WebGPU vertex format.
//
// Parameters:
//   - f: the layout format
//
// Returns:
//   - wgpu.VertexFormat: the matching vertex format
//   - error: ErrUnsupportedVertexFormat if WebGPU has no such vertex format
func VertexFormat(f layout.Format) (wgpu.VertexFormat, error) {
	vf, ok := vertexFormatMap[f]
	if !ok {
		return 0, fmt.Errorf("%s: %w", f, ErrUnsupportedVertexFormat)
	}
	return vf, nil
}

// VertexStepMode converts a layout step mode to a WebGPU step mode.
func VertexStepMode(m layout.StepMode) wgpu.VertexStepMode {
	if m == layout.StepModeInstance {
		return wgpu.VertexStepModeInstance
	}
	return wgpu.VertexStepModeVertex
}

// IndexFormat converts an index buffer format to a WebGPU index format.
//
// Parameters:
//   - f: the index format
//
// Returns:
//   - wgpu.IndexFormat: the matching index format
//   - error: index_buffer.ErrInvalidIndexFormat for an undefined format
func IndexFormat(f index_buffer.IndexFormat) (wgpu.IndexFormat, error) {
	switch f {
	case index_buffer.IndexFormatUint16:
		return wgpu.IndexFormatUint16, nil
	case index_buffer.IndexFormatUint32:
		return wgpu.IndexFormatUint32, nil
	default:
		return 0, fmt.Errorf("%s: %w", f, index_buffer.ErrInvalidIndexFormat)
	}
}

// VertexBufferLayout builds the pipeline vertex buffer layout of a cached descriptor.
//
// Parameters:
//   - d: the layout descriptor
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout with attributes ordered by shader location
//   - error: ErrUnsupportedVertexFormat if any attribute has no WebGPU vertex format
func VertexBufferLayout(d layout_cache.Descriptor) (wgpu.VertexBufferLayout, error) {
	attrs := make([]wgpu.VertexAttribute, 0, len(d.Attributes))
	for _, a := range d.Attributes {
		vf, err := VertexFormat(a.Format)
		if err != nil {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         vf,
			Offset:         uint64(a.Offset),
			ShaderLocation: uint32(a.ShaderLocation),
		})
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(d.Stride),
		StepMode:    VertexStepMode(d.StepMode),
		Attributes:  attrs,
	}, nil
}

// VertexBufferLayouts builds the layouts of every vertex buffer of a geometry, indexed by slot.
//
// Parameters:
//   - g: the geometry
//
// Returns:
//   - []wgpu.VertexBufferLayout: one layout per slot
//   - error: ErrSparseSlots if the slots do not run from 0 without gaps, or a VertexBufferLayout error
func VertexBufferLayouts(g geometry.Geometry) ([]wgpu.VertexBufferLayout, error) {
	buffers := g.VertexBuffers()
	out := make([]wgpu.VertexBufferLayout, 0, len(buffers))
	for i, vb := range buffers {
		if vb.Slot() != i {
			return nil, fmt.Errorf("geometry %q: buffer %q in slot %d: %w", g.Label(), vb.Label(), vb.Slot(), ErrSparseSlots)
		}
		l, err := VertexBufferLayout(vb.Descriptor())
		if err != nil {
			return nil, fmt.Errorf("vertex buffer %q: %w", vb.Label(), err)
		}
		out = append(out, l)
	}
	return out, nil
}
