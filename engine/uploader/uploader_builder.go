package uploader

import (
	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/config"
)

const (
	// CopyAlignment is the byte granularity of WebGPU buffer copies.
	CopyAlignment = 4

	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

// UploaderBuilderOption is a functional option used to configure an Uploader during construction.
type UploaderBuilderOption func(*uploader)

// WithWorkers sets the number of staging workers used by SyncAll.
//
// Parameters:
//   - n: the worker count, at least 1
//
// Returns:
//   - UploaderBuilderOption: a function that sets the worker count
func WithWorkers(n int) UploaderBuilderOption {
	return func(u *uploader) {
		if n > 0 {
			u.workers = n
		}
	}
}

// WithCopyAlignment sets the alignment partial uploads and device buffer sizes are widened to.
//
// Parameters:
//   - alignment: a power of two
//
// Returns:
//   - UploaderBuilderOption: a function that sets the copy alignment
func WithCopyAlignment(alignment int) UploaderBuilderOption {
	return func(u *uploader) {
		if alignment > 0 && alignment&(alignment-1) == 0 {
			u.alignment = alignment
		}
	}
}

// WithConfig takes the worker pool and alignment settings from the uploader section of a configuration.
// Invalid values are ignored; validate the configuration first.
//
// Parameters:
//   - cfg: the uploader configuration
//
// Returns:
//   - UploaderBuilderOption: a function that applies the configuration
func WithConfig(cfg config.UploaderConfig) UploaderBuilderOption {
	return func(u *uploader) {
		WithWorkers(cfg.Workers)(u)
		WithCopyAlignment(cfg.CopyAlignment)(u)
		u.queueSize = common.Coalesce(max(cfg.QueueSize, 0), u.queueSize)
		if d, err := cfg.Timeout(); err == nil {
			u.idleTimeout = d
		}
	}
}
