package layout_cache

// LayoutCacheBuilderOption is a functional option used to configure a LayoutCache during construction.
type LayoutCacheBuilderOption func(*layoutCache)

// WithCapacityHint preallocates room for the expected number of distinct layouts.
//
// Parameters:
//   - n: the expected number of entries
//
// Returns:
//   - LayoutCacheBuilderOption: a function that sizes the entry map
func WithCapacityHint(n int) LayoutCacheBuilderOption {
	return func(c *layoutCache) {
		if n > 0 {
			c.entries = make(map[string]*entry, n)
		}
	}
}

// WithEvictionHandler registers a callback invoked after an entry's last reference is released, so a backend can
// drop the pipeline it compiled for that layout. The callback runs without the cache lock held.
//
// Parameters:
//   - fn: the callback receiving the evicted descriptor
//
// Returns:
//   - LayoutCacheBuilderOption: a function that sets the eviction handler
func WithEvictionHandler(fn func(Descriptor)) LayoutCacheBuilderOption {
	return func(c *layoutCache) {
		c.onEvict = fn
	}
}
