package index_buffer

import "github.com/Carmen-Shannon/oxy-geometry/engine/buffer"

// IndexBufferBuilderOption is a functional option used to configure an IndexBuffer during construction.
type IndexBufferBuilderOption func(*indexBuffer)

// WithBufferOptions configures the growable storage backing the indices.
//
// Parameters:
//   - options: growth factor, initial or maximum capacity
//
// Returns:
//   - IndexBufferBuilderOption: a function that forwards the options to the storage
func WithBufferOptions(options ...buffer.BufferBuilderOption) IndexBufferBuilderOption {
	return func(ib *indexBuffer) {
		ib.bufferOptions = append(ib.bufferOptions, options...)
	}
}

// writeRequest holds the resolved options of one index write.
type writeRequest struct {
	sourceOffset int
	count        int
	markDirty    bool
}

// WriteOption is a functional option for a single index write.
type WriteOption func(*writeRequest)

// WithSourceOffset skips the first offset source indices.
func WithSourceOffset(offset int) WriteOption {
	return func(w *writeRequest) {
		w.sourceOffset = offset
	}
}

// WithCount limits the number of indices copied.
func WithCount(count int) WriteOption {
	return func(w *writeRequest) {
		w.count = count
	}
}

// WithMarkDirty records the written byte span in the dirty list.
func WithMarkDirty(mark bool) WriteOption {
	return func(w *writeRequest) {
		w.markDirty = mark
	}
}
