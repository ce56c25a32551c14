package geometry

import (
	"github.com/Carmen-Shannon/oxy-geometry/engine/config"
	"github.com/Carmen-Shannon/oxy-geometry/engine/index_buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
)

// GeometryBuilderOption is a functional option used to configure a Geometry during construction.
type GeometryBuilderOption func(*geometry)

// WithLabel names the geometry in logs and buffer labels. The default label is derived from its ID.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - GeometryBuilderOption: a function that sets the label
func WithLabel(label string) GeometryBuilderOption {
	return func(g *geometry) {
		g.label = label
	}
}

// WithAttributeFormats overrides the format of default attributes by name, e.g. {"color": unorm8x4}.
//
// Parameters:
//   - formats: replacement formats keyed by attribute name
//
// Returns:
//   - GeometryBuilderOption: a function that sets the format overrides
func WithAttributeFormats(formats map[string]layout.Format) GeometryBuilderOption {
	return func(g *geometry) {
		for name, f := range formats {
			g.formats[name] = f
		}
	}
}

// WithoutDefaults skips creating the default buffer and its attributes.
//
// Returns:
//   - GeometryBuilderOption: a function that disables the default layout
func WithoutDefaults() GeometryBuilderOption {
	return func(g *geometry) {
		g.defaults = nil
	}
}

// WithIndexed creates an index buffer of the given format.
//
// Parameters:
//   - format: the index format
//
// Returns:
//   - GeometryBuilderOption: a function that enables indexing
func WithIndexed(format index_buffer.IndexFormat) GeometryBuilderOption {
	return func(g *geometry) {
		g.indexed = true
		g.indexFormat = format
	}
}

// WithWarningHandler receives layout warnings raised by any of the geometry's vertex buffers.
//
// Parameters:
//   - fn: the warning callback
//
// Returns:
//   - GeometryBuilderOption: a function that sets the warning handler
func WithWarningHandler(fn func(layout.Warning)) GeometryBuilderOption {
	return func(g *geometry) {
		g.onWarning = fn
	}
}

// WithConfig takes the default attributes, indexing and buffer growth settings from a configuration.
// Options given after WithConfig override it.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - GeometryBuilderOption: a function that applies the configuration
func WithConfig(cfg config.Config) GeometryBuilderOption {
	return func(g *geometry) {
		g.defaults = cfg.Geometry.DefaultAttributes
		g.bufferOptions = cfg.Buffer.Options()
		g.indexed = cfg.Geometry.Indexed
		if f, err := cfg.Geometry.Format(); err == nil {
			g.indexFormat = f
		}
	}
}

// bufferRequest holds the resolved options of one CreateBuffer call.
type bufferRequest struct {
	slot     *int
	stepMode layout.StepMode
	stride   int
}

// BufferOption is a functional option for CreateBuffer.
type BufferOption func(*bufferRequest)

// WithSlot places the buffer in an explicit slot instead of the smallest free one.
func WithSlot(slot int) BufferOption {
	return func(r *bufferRequest) {
		r.slot = &slot
	}
}

// WithStepMode makes the buffer advance per vertex or per instance.
func WithStepMode(mode layout.StepMode) BufferOption {
	return func(r *bufferRequest) {
		r.stepMode = mode
	}
}

// WithStride reserves a minimum record size in bytes.
func WithStride(stride int) BufferOption {
	return func(r *bufferRequest) {
		r.stride = stride
	}
}

// attributeRequest holds the resolved options of one CreateAttribute call.
type attributeRequest struct {
	buffer         string
	shaderLocation *int
	offset         *int
}

// AttributeOption is a functional option for CreateAttribute.
type AttributeOption func(*attributeRequest)

// InBuffer declares the attribute in the named buffer instead of the default one.
func InBuffer(name string) AttributeOption {
	return func(r *attributeRequest) {
		r.buffer = name
	}
}

// AtShaderLocation binds the attribute to an explicit shader location.
func AtShaderLocation(location int) AttributeOption {
	return func(r *attributeRequest) {
		r.shaderLocation = &location
	}
}

// AtOffset places the attribute at an explicit byte offset within its record.
func AtOffset(offset int) AttributeOption {
	return func(r *attributeRequest) {
		r.offset = &offset
	}
}
