package layout_cache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
)

// Descriptor is the shared, immutable description of one vertex buffer layout.
// Attributes are ordered by shader location. Callers must treat the slice as read-only.
type Descriptor struct {
	Signature  string
	Stride     int
	StepMode   layout.StepMode
	Attributes []layout.Attribute
}

// entry is a cached descriptor and the number of frozen plans referencing it.
type entry struct {
	descriptor Descriptor
	references int
}

// layoutCache is the implementation of the LayoutCache interface.
type layoutCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	onEvict func(Descriptor)
}

// LayoutCache maps canonical layout signatures to shared descriptors, reference counted so that every vertex buffer
// with an identical layout resolves to one entry. A backend keys compiled pipelines on the signature, letting meshes
// with equal layouts share a pipeline and be grouped into batched draws.
type LayoutCache interface {
	// Acquire resolves a frozen table to its shared descriptor. An existing entry has its reference count
	// incremented and is returned; otherwise a new entry is inserted with a count of 1.
	//
	// Parameters:
	//   - table: the frozen attribute table
	//   - stepMode: the step mode of the vertex buffer owning the table
	//
	// Returns:
	//   - Descriptor: the shared descriptor
	//   - error: ErrTableNotFrozen if the table may still change
	Acquire(table *layout.Table, stepMode layout.StepMode) (Descriptor, error)

	// Release drops one reference to the entry with the given signature and removes it when no references remain.
	//
	// Parameters:
	//   - signature: the signature returned in the acquired Descriptor
	//
	// Returns:
	//   - error: ErrUnknownSignature if no entry exists for the signature
	Release(signature string) error

	// Lookup returns the descriptor cached under the signature without changing its reference count.
	//
	// Parameters:
	//   - signature: the signature to look up
	//
	// Returns:
	//   - Descriptor: the cached descriptor
	//   - bool: false if no entry exists
	Lookup(signature string) (Descriptor, bool)

	// References returns the reference count of the entry, or 0 if it does not exist.
	//
	// Parameters:
	//   - signature: the signature to look up
	//
	// Returns:
	//   - int: the reference count
	References(signature string) int

	// Len returns the number of live entries.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Signatures returns every live signature in sorted order.
	//
	// Returns:
	//   - []string: the signatures
	Signatures() []string
}

var _ LayoutCache = &layoutCache{}

// NewLayoutCache creates an empty LayoutCache.
//
// Parameters:
//   - options: a variadic list of LayoutCacheBuilderOption functions to configure the cache
//
// Returns:
//   - LayoutCache: the new cache
func NewLayoutCache(options ...LayoutCacheBuilderOption) LayoutCache {
	c := &layoutCache{
		entries: make(map[string]*entry),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Signature builds the cache key for a table: the table's attribute signature followed by the stride and step
// mode, so that equal attributes with a padded stride or a different step mode never alias.
//
// Parameters:
//   - table: the attribute table
//   - stepMode: the step mode of the owning vertex buffer
//
// Returns:
//   - string: the canonical signature
func Signature(table *layout.Table, stepMode layout.StepMode) string {
	return fmt.Sprintf("%s|%d|%s", table.Signature(), table.Stride(), stepMode)
}

// NewDescriptor builds a standalone descriptor for a table, without touching any cache.
//
// Parameters:
//   - table: the attribute table
//   - stepMode: the step mode of the owning vertex buffer
//
// Returns:
//   - Descriptor: a descriptor owning its own attribute slice
func NewDescriptor(table *layout.Table, stepMode layout.StepMode) Descriptor {
	return Descriptor{
		Signature:  Signature(table, stepMode),
		Stride:     table.Stride(),
		StepMode:   stepMode,
		Attributes: table.SortedBySlot(),
	}
}

func (c *layoutCache) Acquire(table *layout.Table, stepMode layout.StepMode) (Descriptor, error) {
	if table == nil || !table.Frozen() {
		return Descriptor{}, ErrTableNotFrozen
	}
	signature := Signature(table, stepMode)

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[signature]; ok {
		e.references++
		return e.descriptor, nil
	}

	d := NewDescriptor(table, stepMode)
	c.entries[signature] = &entry{descriptor: d, references: 1}
	common.LogDebug("layout cache: new entry %q", signature)
	return d, nil
}

func (c *layoutCache) Release(signature string) error {
	c.mu.Lock()
	e, ok := c.entries[signature]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("release %q: %w", signature, ErrUnknownSignature)
	}
	e.references--
	if e.references > 0 {
		c.mu.Unlock()
		return nil
	}
	delete(c.entries, signature)
	onEvict := c.onEvict
	c.mu.Unlock()

	common.LogDebug("layout cache: evicted entry %q", signature)
	if onEvict != nil {
		onEvict(e.descriptor)
	}
	return nil
}

func (c *layoutCache) Lookup(signature string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[signature]
	if !ok {
		return Descriptor{}, false
	}
	return e.descriptor, true
}

func (c *layoutCache) References(signature string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[signature]; ok {
		return e.references
	}
	return 0
}

func (c *layoutCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *layoutCache) Signatures() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.entries))
	for s := range c.entries {
		out = append(out, s)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}
