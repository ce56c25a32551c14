package vertex_buffer

import (
	"github.com/Carmen-Shannon/oxy-geometry/engine/buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
)

// VertexBufferBuilderOption is a functional option used to configure a VertexBuffer during construction.
type VertexBufferBuilderOption func(*vertexBuffer)

// WithAttribute queues an attribute declaration applied, in option order, once the buffer is built.
// A failing declaration makes NewVertexBuffer return its error.
//
// Parameters:
//   - name: the attribute name
//   - format: the attribute format
//   - options: explicit offset or shader location
//
// Returns:
//   - VertexBufferBuilderOption: a function that queues the declaration
func WithAttribute(name string, format layout.Format, options ...layout.DeclareOption) VertexBufferBuilderOption {
	return func(v *vertexBuffer) {
		v.pending = append(v.pending, pendingAttribute{name: name, format: format, options: options})
	}
}

// WithStride reserves a minimum record size in bytes.
//
// Parameters:
//   - stride: the minimum stride
//
// Returns:
//   - VertexBufferBuilderOption: a function that sets the initial stride
func WithStride(stride int) VertexBufferBuilderOption {
	return func(v *vertexBuffer) {
		v.tableOptions = append(v.tableOptions, layout.WithInitialStride(stride))
	}
}

// WithStepMode sets whether records advance per vertex or per instance.
//
// Parameters:
//   - mode: the step mode
//
// Returns:
//   - VertexBufferBuilderOption: a function that sets the step mode
func WithStepMode(mode layout.StepMode) VertexBufferBuilderOption {
	return func(v *vertexBuffer) {
		v.stepMode = mode
	}
}

// WithSlot sets the vertex buffer slot the backend binds this buffer to.
//
// Parameters:
//   - slot: the buffer slot
//
// Returns:
//   - VertexBufferBuilderOption: a function that sets the slot
func WithSlot(slot int) VertexBufferBuilderOption {
	return func(v *vertexBuffer) {
		v.slot = slot
	}
}

// WithShaderLocationOffset sets the first shader location handed to auto-assigned attributes.
//
// Parameters:
//   - location: the first auto-assigned shader location
//
// Returns:
//   - VertexBufferBuilderOption: a function that sets the shader location counter
func WithShaderLocationOffset(location int) VertexBufferBuilderOption {
	return func(v *vertexBuffer) {
		v.tableOptions = append(v.tableOptions, layout.WithShaderLocationOffset(location))
	}
}

// WithBufferOptions configures the growable storage backing the records.
//
// Parameters:
//   - options: growth factor, initial or maximum capacity
//
// Returns:
//   - VertexBufferBuilderOption: a function that forwards the options to the storage
func WithBufferOptions(options ...buffer.BufferBuilderOption) VertexBufferBuilderOption {
	return func(v *vertexBuffer) {
		v.bufferOptions = append(v.bufferOptions, options...)
	}
}

// WithWarningHandler receives every alignment and overlap warning raised by a declaration, in addition to the log.
//
// Parameters:
//   - fn: the warning callback
//
// Returns:
//   - VertexBufferBuilderOption: a function that sets the warning handler
func WithWarningHandler(fn func(layout.Warning)) VertexBufferBuilderOption {
	return func(v *vertexBuffer) {
		v.onWarning = fn
	}
}
