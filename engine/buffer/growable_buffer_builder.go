package buffer

// BufferBuilderOption is a functional option used to configure a GrowableBuffer during construction.
type BufferBuilderOption func(*GrowableBuffer)

// WithGrowthFactor sets the base of the power the capacity grows to. Values below 2 keep the default.
//
// Parameters:
//   - factor: the growth factor
//
// Returns:
//   - BufferBuilderOption: a function that sets the growth factor
func WithGrowthFactor(factor int) BufferBuilderOption {
	return func(b *GrowableBuffer) {
		if factor >= 2 {
			b.factor = factor
		}
	}
}

// WithInitialCapacity allocates exactly capacity bytes up front.
//
// Parameters:
//   - capacity: the initial allocation in bytes
//
// Returns:
//   - BufferBuilderOption: a function that sets the initial allocation
func WithInitialCapacity(capacity int) BufferBuilderOption {
	return func(b *GrowableBuffer) {
		if capacity > len(b.data) {
			next := make([]byte, capacity)
			copy(next, b.data)
			b.data = next
		}
	}
}

// WithMaxCapacity caps the allocation size. Requests beyond it fail with ErrAllocation.
//
// Parameters:
//   - capacity: the largest allowed capacity in bytes
//
// Returns:
//   - BufferBuilderOption: a function that sets the maximum capacity
func WithMaxCapacity(capacity int) BufferBuilderOption {
	return func(b *GrowableBuffer) {
		if capacity > 0 {
			b.maxCapacity = capacity
		}
	}
}

// WithBytes adopts data as the initial storage; the used length becomes len(data).
// The buffer takes ownership of the slice.
//
// Parameters:
//   - data: the initial contents
//
// Returns:
//   - BufferBuilderOption: a function that sets the initial storage
func WithBytes(data []byte) BufferBuilderOption {
	return func(b *GrowableBuffer) {
		if data == nil {
			return
		}
		b.data = data
		b.used = len(data)
	}
}
