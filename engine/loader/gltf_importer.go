package loader

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/geometry"
	"github.com/Carmen-Shannon/oxy-geometry/engine/index_buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout_cache"
	"github.com/Carmen-Shannon/oxy-geometry/engine/renderer"
)

// semanticOrder fixes the declaration order of the standard semantics so primitives with the same attribute set
// produce the same layout.
var semanticOrder = []string{"POSITION", "NORMAL", "TANGENT", "TEXCOORD_0", "TEXCOORD_1", "COLOR_0", "JOINTS_0", "WEIGHTS_0"}

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	cache           layout_cache.LayoutCache
	names           map[string]string
	geometryOptions []geometry.GeometryBuilderOption
}

// gltfImporter turns the primitives of a glTF document into geometries. Every primitive becomes one geometry with
// a single interleaved vertex buffer and, when the primitive is indexed, an index buffer.
type gltfImporter interface {
	// Import parses a glTF/GLB file and imports every primitive of every mesh.
	//
	// Parameters:
	//   - path: the file path
	//
	// Returns:
	//   - []geometry.Geometry: one geometry per primitive, in mesh then primitive order
	//   - error: a parse or import error
	Import(path string) ([]geometry.Geometry, error)

	// ImportReader parses a glTF/GLB stream and imports every primitive of every mesh.
	//
	// Parameters:
	//   - r: the reader providing the document
	//   - isGLB: true for GLB binary data
	//   - baseDir: the directory relative buffer URIs resolve against
	//
	// Returns:
	//   - []geometry.Geometry: one geometry per primitive
	//   - error: a parse or import error
	ImportReader(r io.Reader, isGLB bool, baseDir string) ([]geometry.Geometry, error)
}

var _ gltfImporter = &gltfImporterImpl{}

func newGLTFImporter(cache layout_cache.LayoutCache, names map[string]string, options []geometry.GeometryBuilderOption) gltfImporter {
	return &gltfImporterImpl{
		cache:           cache,
		names:           names,
		geometryOptions: options,
	}
}

func (i *gltfImporterImpl) Import(path string) ([]geometry.Geometry, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return i.importAll(parser)
}

func (i *gltfImporterImpl) ImportReader(r io.Reader, isGLB bool, baseDir string) ([]geometry.Geometry, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB, baseDir); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return i.importAll(parser)
}

func (i *gltfImporterImpl) importAll(parser gltfParser) ([]geometry.Geometry, error) {
	doc := parser.Document()
	var out []geometry.Geometry
	for meshIdx := range doc.Meshes {
		mesh := &doc.Meshes[meshIdx]
		for primIdx := range mesh.Primitives {
			label := fmt.Sprintf("%s/%d", common.Coalesce(mesh.Name, "mesh"+strconv.Itoa(meshIdx)), primIdx)
			g, err := i.importPrimitive(parser, &mesh.Primitives[primIdx], label)
			if err != nil {
				for _, done := range out {
					done.Destroy()
				}
				return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIdx, primIdx, err)
			}
			out = append(out, g)
		}
	}
	common.LogDebug("loader: imported %d primitives from %d meshes", len(out), len(doc.Meshes))
	return out, nil
}

// importedAttribute is one primitive attribute ready to be declared and written.
type importedAttribute struct {
	name string
	data accessorData
}

func (i *gltfImporterImpl) importPrimitive(parser gltfParser, prim *gltfPrimitive, label string) (geometry.Geometry, error) {
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return nil, fmt.Errorf("mode %d: %w", *prim.Mode, ErrUnsupportedPrimitiveMode)
	}
	if _, ok := prim.Attributes["POSITION"]; !ok {
		return nil, ErrMissingPosition
	}

	var attrs []importedAttribute
	vertexCount := -1
	for _, semantic := range orderedSemantics(prim.Attributes) {
		data, err := parser.ReadAccessor(prim.Attributes[semantic])
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", semantic, err)
		}
		if vertexCount >= 0 && data.count != vertexCount {
			return nil, fmt.Errorf("attribute %s has %d elements, expected %d: %w", semantic, data.count, vertexCount, ErrMalformedDocument)
		}
		vertexCount = data.count
		attrs = append(attrs, importedAttribute{name: i.attributeName(semantic), data: fetchable(data)})
	}

	options := append([]geometry.GeometryBuilderOption{}, i.geometryOptions...)
	options = append(options, geometry.WithLabel(label), geometry.WithoutDefaults())

	var indices []uint32
	if prim.Indices != nil {
		values, componentType, err := parser.ReadIndices(*prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		format := index_buffer.IndexFormatUint16
		if componentType == gltfComponentTypeUnsignedInt {
			format = index_buffer.IndexFormatUint32
		}
		indices = values
		options = append(options, geometry.WithIndexed(format))
	}

	g, err := geometry.NewGeometry(i.cache, options...)
	if err != nil {
		return nil, err
	}
	if err := fill(g, attrs, indices); err != nil {
		g.Destroy()
		return nil, err
	}
	return g, nil
}

func fill(g geometry.Geometry, attrs []importedAttribute, indices []uint32) error {
	if _, err := g.CreateBuffer(geometry.DefaultBuffer); err != nil {
		return err
	}
	for _, a := range attrs {
		if _, err := g.CreateAttribute(a.name, a.data.format); err != nil {
			return fmt.Errorf("declare %q: %w", a.name, err)
		}
	}
	for _, a := range attrs {
		if err := g.SetAttribute(a.name, a.data.values); err != nil {
			return fmt.Errorf("write %q: %w", a.name, err)
		}
	}
	if indices != nil {
		if err := g.SetIndices(indices, 0); err != nil {
			return fmt.Errorf("write indices: %w", err)
		}
	}
	return nil
}

// attributeName maps a glTF semantic to the attribute name used in the geometry.
func (i *gltfImporterImpl) attributeName(semantic string) string {
	if name, ok := i.names[semantic]; ok {
		return name
	}
	switch semantic {
	case "TEXCOORD_0":
		return "uv"
	case "COLOR_0":
		return "color"
	case "JOINTS_0":
		return "joints"
	case "WEIGHTS_0":
		return "weights"
	}
	if n, ok := strings.CutPrefix(semantic, "TEXCOORD_"); ok {
		return "uv" + n
	}
	return strings.ToLower(strings.TrimPrefix(semantic, "_"))
}

// orderedSemantics returns the standard semantics present in attrs in their fixed order, then any others sorted.
func orderedSemantics(attrs map[string]int) []string {
	out := make([]string, 0, len(attrs))
	seen := make(map[string]bool, len(attrs))
	for _, s := range semanticOrder {
		if _, ok := attrs[s]; ok {
			out = append(out, s)
			seen[s] = true
		}
	}
	var rest []string
	for s := range attrs {
		if !seen[s] {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// fetchable widens accessor data the GPU cannot fetch directly, such as unorm8x3 colors, to float32 with the same
// component count. Normalized values are scaled into [0,1] or [-1,1] on the way.
func fetchable(d accessorData) accessorData {
	if _, err := renderer.VertexFormat(d.format); err == nil {
		return d
	}

	scale := normalizedMax(d.format.Scalar)
	values := make([]float64, len(d.values))
	for i, v := range d.values {
		if scale > 0 {
			v = max(v/scale, -1)
		}
		values[i] = v
	}
	return accessorData{
		format: layout.Format{Scalar: layout.ScalarFloat32, Components: d.format.Components},
		count:  d.count,
		values: values,
	}
}

// normalizedMax returns the integer value that maps to 1.0 for normalized scalars, or 0 for the rest.
func normalizedMax(s layout.ScalarFormat) float64 {
	switch s {
	case layout.ScalarUnorm8:
		return 255
	case layout.ScalarUnorm16:
		return 65535
	case layout.ScalarSnorm8:
		return 127
	case layout.ScalarSnorm16:
		return 32767
	default:
		return 0
	}
}
