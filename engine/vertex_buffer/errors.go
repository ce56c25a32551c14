package vertex_buffer

import "errors"

var (
	ErrUnknownAttribute = errors.New("attribute is not declared")
	ErrSourceRange      = errors.New("source range is out of bounds")
	ErrCapacityExceeded = errors.New("write does not fit the buffer and resizing is disabled")
	ErrVertexRange      = errors.New("vertex index is out of range")
	ErrDestroyed        = errors.New("vertex buffer has been destroyed")
)
