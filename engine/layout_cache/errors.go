package layout_cache

import "errors"

var (
	ErrTableNotFrozen   = errors.New("attribute table must be frozen before it is cached")
	ErrUnknownSignature = errors.New("no cache entry for layout signature")
)
