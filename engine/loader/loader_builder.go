package loader

import (
	"github.com/Carmen-Shannon/oxy-geometry/engine/geometry"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout_cache"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLayoutCache is an option builder that sets the layout cache imported geometries freeze against.
//
// Parameters:
//   - cache: the layout cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithLayoutCache(cache layout_cache.LayoutCache) LoaderBuilderOption {
	return func(l *loader) {
		l.cache = cache
	}
}

// WithAttributeName maps a glTF semantic such as "TEXCOORD_0" to the attribute name used in imported geometries.
//
// Parameters:
//   - semantic: the glTF attribute semantic
//   - name: the geometry attribute name
//
// Returns:
//   - LoaderBuilderOption: a function that applies the mapping to a loader
func WithAttributeName(semantic, name string) LoaderBuilderOption {
	return func(l *loader) {
		l.names[semantic] = name
	}
}

// WithGeometryOptions is an option builder that passes extra options to every imported geometry, e.g.
// geometry.WithConfig for buffer growth settings. Labels, indexing and default attributes are set by the importer.
//
// Parameters:
//   - options: the geometry options
//
// Returns:
//   - LoaderBuilderOption: a function that applies the geometry options to a loader
func WithGeometryOptions(options ...geometry.GeometryBuilderOption) LoaderBuilderOption {
	return func(l *loader) {
		l.geometryOptions = append(l.geometryOptions, options...)
	}
}

// WithGeometries is an option builder that pre-populates the cache with geometries.
//
// Parameters:
//   - key: the cache key
//   - geometries: the geometries to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the geometries to a loader
func WithGeometries(key string, geometries []geometry.Geometry) LoaderBuilderOption {
	return func(l *loader) {
		l.meshCache[key] = geometries
	}
}
