package uploader

import "errors"

var (
	ErrNilDevice    = errors.New("uploader requires a device")
	ErrNotAllocated = errors.New("source has no device buffer")
	ErrClosed       = errors.New("uploader is closed")
)
