package index_buffer

import "errors"

var (
	ErrInvalidIndexFormat = errors.New("index format must be uint16 or uint32")
	ErrIndexOutOfRange    = errors.New("index does not fit the index format")
	ErrSourceRange        = errors.New("source range is out of bounds")
	ErrDestroyed          = errors.New("index buffer has been destroyed")
)
