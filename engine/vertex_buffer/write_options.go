package vertex_buffer

// writeRequest holds the resolved options of one attribute write.
type writeRequest struct {
	vertexOffset int
	sourceOffset int
	count        int
	markDirty    bool
	resize       bool
}

// WriteOption is a functional option for a single attribute write.
type WriteOption func(*writeRequest)

func newWriteRequest(options ...WriteOption) writeRequest {
	w := writeRequest{count: -1, resize: true}
	for _, opt := range options {
		opt(&w)
	}
	return w
}

// resolveCount validates the source window against n available values and returns the number of scalars to copy.
func (w writeRequest) resolveCount(n int) (int, error) {
	if w.vertexOffset < 0 || w.sourceOffset < 0 || w.sourceOffset > n {
		return 0, ErrSourceRange
	}
	count := w.count
	if count < 0 {
		count = n - w.sourceOffset
	}
	if w.sourceOffset+count > n {
		return 0, ErrSourceRange
	}
	return count, nil
}

// WithVertexOffset writes starting at the given record instead of record 0.
//
// Parameters:
//   - offset: the first record to write
//
// Returns:
//   - WriteOption: a function that sets the vertex offset
func WithVertexOffset(offset int) WriteOption {
	return func(w *writeRequest) {
		w.vertexOffset = offset
	}
}

// WithSourceOffset skips the first offset source values.
//
// Parameters:
//   - offset: the index of the first source value to copy
//
// Returns:
//   - WriteOption: a function that sets the source offset
func WithSourceOffset(offset int) WriteOption {
	return func(w *writeRequest) {
		w.sourceOffset = offset
	}
}

// WithCount limits the number of source scalars copied. By default every value after the source offset is copied.
//
// Parameters:
//   - count: the number of scalars to copy
//
// Returns:
//   - WriteOption: a function that sets the count
func WithCount(count int) WriteOption {
	return func(w *writeRequest) {
		w.count = count
	}
}

// WithMarkDirty records the touched byte span in the dirty list so the next sync uploads it.
//
// Parameters:
//   - mark: whether to record the span
//
// Returns:
//   - WriteOption: a function that sets dirty marking
func WithMarkDirty(mark bool) WriteOption {
	return func(w *writeRequest) {
		w.markDirty = mark
	}
}

// WithResize controls whether a write may grow the storage. When false, a write that does not fit the current
// capacity fails with ErrCapacityExceeded.
//
// Parameters:
//   - resize: whether the write may grow the storage
//
// Returns:
//   - WriteOption: a function that sets the resize behavior
func WithResize(resize bool) WriteOption {
	return func(w *writeRequest) {
		w.resize = resize
	}
}
