package renderer

import "errors"

var (
	ErrUnsupportedVertexFormat = errors.New("format has no WebGPU vertex format")
	ErrUnsupportedUsage        = errors.New("buffer usage is not supported")
	ErrForeignHandle           = errors.New("handle was not allocated by this device")
	ErrSparseSlots             = errors.New("vertex buffer slots must be contiguous from 0")
)
