package layout

import "errors"

var (
	ErrInvalidFormat         = errors.New("invalid vertex format")
	ErrInvalidComponentCount = errors.New("component count must be in range [1, 4]")
	ErrDuplicateAttribute    = errors.New("attribute already declared")
	ErrFrozenLayoutMutation  = errors.New("attribute layout is frozen")
	ErrInvalidOffset         = errors.New("attribute offset must not be negative")
	ErrInvalidShaderLocation = errors.New("shader location must not be negative")
)
