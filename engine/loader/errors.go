package loader

import "errors"

var (
	ErrUnsupportedVersion       = errors.New("unsupported glTF version")
	ErrMalformedDocument        = errors.New("malformed glTF document")
	ErrUnsupportedAccessor      = errors.New("unsupported accessor")
	ErrUnsupportedPrimitiveMode = errors.New("unsupported primitive mode: only triangles are imported")
	ErrMissingPosition          = errors.New("primitive has no POSITION attribute")
)
