package geometry

import "errors"

var (
	ErrDuplicateBuffer     = errors.New("vertex buffer already exists in geometry")
	ErrUnknownBuffer       = errors.New("vertex buffer does not exist in geometry")
	ErrSlotInUse           = errors.New("vertex buffer slot is already in use")
	ErrDuplicateAttribute  = errors.New("attribute already exists in geometry")
	ErrUnknownAttribute    = errors.New("attribute is not in geometry")
	ErrShaderLocationInUse = errors.New("shader location is already in use")
	ErrNotIndexed          = errors.New("geometry has no index buffer")
	ErrDestroyed           = errors.New("geometry has been destroyed")
)
