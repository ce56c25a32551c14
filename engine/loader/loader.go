package loader

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/geometry"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout_cache"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cache           layout_cache.LayoutCache
	names           map[string]string
	geometryOptions []geometry.GeometryBuilderOption

	meshCache map[string][]geometry.Geometry

	importer gltfImporter
}

// Loader imports glTF/GLB mesh primitives as geometries and caches the result by name. Geometries of primitives
// with the same attribute set share their cached layouts.
type Loader interface {
	// Load imports a glTF or GLB file and caches the result by path.
	// If the file is already cached, the cached geometries are returned.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - []geometry.Geometry: one geometry per primitive
	//   - error: error if loading fails
	Load(path string) ([]geometry.Geometry, error)

	// LoadReader imports a document from a reader stream and caches it by the given name.
	// Relative buffer URIs are resolved against the working directory.
	//
	// Parameters:
	//   - name: the cache key for the loaded geometries
	//   - r: the reader providing the document
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - []geometry.Geometry: one geometry per primitive
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) ([]geometry.Geometry, error)

	// Get retrieves cached geometries by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - []geometry.Geometry: the cached geometries or nil
	Get(name string) []geometry.Geometry

	// Names returns the cached names in sorted order.
	Names() []string

	// Release destroys the geometries cached under name and removes them from the cache.
	//
	// Parameters:
	//   - name: the cache key to release
	//
	// Returns:
	//   - bool: false if nothing was cached under name
	Release(name string) bool
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		names:     make(map[string]string),
		meshCache: make(map[string][]geometry.Geometry),
	}
	for _, option := range options {
		option(l)
	}
	l.importer = newGLTFImporter(l.cache, l.names, l.geometryOptions)
	return l
}

func (l *loader) Load(path string) ([]geometry.Geometry, error) {
	if cached := l.Get(path); cached != nil {
		return cached, nil
	}

	geometries, err := l.importer.Import(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", path, err)
	}
	return l.store(path, geometries), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) ([]geometry.Geometry, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	geometries, err := l.importer.ImportReader(r, isGLB, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", name, err)
	}
	return l.store(name, geometries), nil
}

// store caches geometries under name. When another caller stored the same name first, the new import is
// destroyed and the cached one returned.
func (l *loader) store(name string, geometries []geometry.Geometry) []geometry.Geometry {
	l.mu.Lock()
	if cached, ok := l.meshCache[name]; ok {
		l.mu.Unlock()
		for _, g := range geometries {
			g.Destroy()
		}
		return cached
	}
	l.meshCache[name] = geometries
	l.mu.Unlock()

	common.LogInfo("loader: cached %d geometries as %q", len(geometries), name)
	return geometries
}

func (l *loader) Get(name string) []geometry.Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meshCache[name]
}

func (l *loader) Names() []string {
	l.mu.RLock()
	out := make([]string, 0, len(l.meshCache))
	for name := range l.meshCache {
		out = append(out, name)
	}
	l.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (l *loader) Release(name string) bool {
	l.mu.Lock()
	geometries, ok := l.meshCache[name]
	delete(l.meshCache, name)
	l.mu.Unlock()

	for _, g := range geometries {
		g.Destroy()
	}
	return ok
}
