package buffer

import "errors"

var (
	ErrAllocation = errors.New("invalid buffer allocation")
)
