package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-geometry/engine/buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
)

// accessorData is one accessor decoded into scalars, with the vertex format its components map to.
type accessorData struct {
	format layout.Format
	count  int
	values []float64
}

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

// gltfParser loads glTF/GLB documents and decodes their accessors.
type gltfParser interface {
	// Parse loads and parses a glTF/GLB file from the given path.
	// Automatically detects .gltf (JSON) vs .glb (binary) format.
	//
	// Parameters:
	//   - path: path to the glTF or GLB file
	//
	// Returns:
	//   - error: error if parsing fails
	Parse(path string) error

	// ParseReader parses a glTF document from a reader. Relative buffer URIs resolve against baseDir.
	//
	// Parameters:
	//   - r: reader containing glTF JSON or GLB data
	//   - isGLB: true if the data is in GLB format
	//   - baseDir: the directory relative buffer URIs resolve against
	//
	// Returns:
	//   - error: error if parsing fails
	ParseReader(r io.Reader, isGLB bool, baseDir string) error

	Document() *gltfDocument

	// ReadAccessor decodes an accessor into scalars and maps its component type to a vertex format.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - accessorData: the decoded values, count and format
	//   - error: ErrUnsupportedAccessor or ErrMalformedDocument
	ReadAccessor(accessorIndex int) (accessorData, error)

	// ReadIndices decodes a scalar unsigned accessor as indices.
	//
	// Parameters:
	//   - accessorIndex: the index of the accessor
	//
	// Returns:
	//   - []uint32: the indices
	//   - int: the component type of the accessor
	//   - error: ErrUnsupportedAccessor or ErrMalformedDocument
	ReadIndices(accessorIndex int) ([]uint32, int, error)
}

var _ gltfParser = &gltfParserImpl{}

func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltfDocument {
	return p.document
}

func (p *gltfParserImpl) Parse(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	p.baseDir = filepath.Dir(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".glb" || (len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool, baseDir string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	p.baseDir = baseDir

	if isGLB {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

func (p *gltfParserImpl) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	return p.setDocument(&doc)
}

// parseGLB parses a GLB binary file.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParserImpl) parseGLB(data []byte) error {
	if len(data) < 12 {
		return fmt.Errorf("GLB file too small: %w", ErrMalformedDocument)
	}
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return fmt.Errorf("GLB magic %#x: %w", header.Magic, ErrMalformedDocument)
	}
	if header.Version != gltfGLBVersion {
		return fmt.Errorf("GLB version %d: %w", header.Version, ErrUnsupportedVersion)
	}

	var jsonData, binData []byte
	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}

		if int64(chunkHeader.ChunkLength) > int64(r.Len()) {
			return fmt.Errorf("chunk of %d bytes exceeds the %d bytes left: %w", chunkHeader.ChunkLength, r.Len(), ErrMalformedDocument)
		}
		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = chunkData
		case gltfGLBChunkBIN:
			binData = chunkData
		}
	}
	if jsonData == nil {
		return fmt.Errorf("GLB file missing JSON chunk: %w", ErrMalformedDocument)
	}
	p.glbBinaryChunk = binData

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	return p.setDocument(&doc)
}

func (p *gltfParserImpl) setDocument(doc *gltfDocument) error {
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return fmt.Errorf("glTF version %q: %w", doc.Asset.Version, ErrUnsupportedVersion)
	}
	if err := p.loadBuffers(doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	p.document = doc
	return nil
}

// loadBuffers loads all buffer data (from URIs, embedded data, or GLB binary chunk).
func (p *gltfParserImpl) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk: %w", i, ErrMalformedDocument)
		default:
			data, err := p.loadBufferURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d holds %d of %d bytes: %w", i, len(buf.Data), buf.ByteLength, ErrMalformedDocument)
		}
	}
	return nil
}

// loadBufferURI loads buffer data from a URI (data: URI or file path).
func (p *gltfParserImpl) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return loadDataURI(uri)
	}

	data, err := os.ReadFile(filepath.Join(p.baseDir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

// loadDataURI decodes a base64 data URI.
// Format: data:[<mediatype>][;base64],<data>
func loadDataURI(uri string) ([]byte, error) {
	commaIdx := strings.Index(uri, ",")
	if commaIdx < 0 {
		return nil, fmt.Errorf("data URI without payload: %w", ErrMalformedDocument)
	}
	header := uri[5:commaIdx]
	if !strings.Contains(header, "base64") {
		return nil, fmt.Errorf("data URI encoding %q: %w", header, ErrMalformedDocument)
	}

	data, err := base64.StdEncoding.DecodeString(uri[commaIdx+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// readAccessorBytes gathers an accessor's elements into a tightly packed byte slice, honoring the view stride.
func (p *gltfParserImpl) readAccessorBytes(accessorIndex int) (*gltfAccessor, []byte, int, error) {
	if p.document == nil {
		return nil, nil, 0, fmt.Errorf("no document loaded: %w", ErrMalformedDocument)
	}
	if accessorIndex < 0 || accessorIndex >= len(p.document.Accessors) {
		return nil, nil, 0, fmt.Errorf("accessor index %d out of range: %w", accessorIndex, ErrMalformedDocument)
	}

	acc := &p.document.Accessors[accessorIndex]
	if acc.Sparse != nil {
		return nil, nil, 0, fmt.Errorf("accessor %d is sparse: %w", accessorIndex, ErrUnsupportedAccessor)
	}
	if acc.Count < 0 {
		return nil, nil, 0, fmt.Errorf("accessor %d has count %d: %w", accessorIndex, acc.Count, ErrMalformedDocument)
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(p.document.BufferViews) {
		return nil, nil, 0, fmt.Errorf("accessor %d has no bufferView: %w", accessorIndex, ErrMalformedDocument)
	}
	bv := &p.document.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(p.document.Buffers) {
		return nil, nil, 0, fmt.Errorf("bufferView %d: buffer %d out of range: %w", *acc.BufferView, bv.Buffer, ErrMalformedDocument)
	}
	buf := &p.document.Buffers[bv.Buffer]

	componentSize := gltfComponentTypeSize(acc.ComponentType)
	componentCount := gltfAccessorTypeComponentCount(acc.Type)
	if componentSize == 0 || componentCount == 0 {
		return nil, nil, 0, fmt.Errorf("accessor %d is %s/%d: %w", accessorIndex, acc.Type, acc.ComponentType, ErrUnsupportedAccessor)
	}
	elementSize := componentSize * componentCount

	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	bufferOffset := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 && bufferOffset+(acc.Count-1)*stride+elementSize > len(buf.Data) {
		return nil, nil, 0, fmt.Errorf("accessor %d reads past buffer %d: %w", accessorIndex, bv.Buffer, ErrMalformedDocument)
	}

	result := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		srcOffset := bufferOffset + i*stride
		copy(result[i*elementSize:(i+1)*elementSize], buf.Data[srcOffset:srcOffset+elementSize])
	}
	return acc, result, componentCount, nil
}

func (p *gltfParserImpl) ReadAccessor(accessorIndex int) (accessorData, error) {
	acc, data, components, err := p.readAccessorBytes(accessorIndex)
	if err != nil {
		return accessorData{}, err
	}
	scalar, err := gltfScalarFormat(acc.ComponentType, acc.Normalized)
	if err != nil {
		return accessorData{}, fmt.Errorf("accessor %d: %w", accessorIndex, err)
	}

	view := buffer.New(buffer.WithBytes(data)).ViewAs(scalar)
	values := make([]float64, view.Len())
	for i := range values {
		values[i] = view.Get(i)
	}
	return accessorData{
		format: layout.Format{Scalar: scalar, Components: components},
		count:  acc.Count,
		values: values,
	}, nil
}

func (p *gltfParserImpl) ReadIndices(accessorIndex int) ([]uint32, int, error) {
	acc, data, components, err := p.readAccessorBytes(accessorIndex)
	if err != nil {
		return nil, 0, err
	}
	if components != 1 {
		return nil, 0, fmt.Errorf("index accessor %d is %s: %w", accessorIndex, acc.Type, ErrUnsupportedAccessor)
	}

	var scalar layout.ScalarFormat
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		scalar = layout.ScalarUint8
	case gltfComponentTypeUnsignedShort:
		scalar = layout.ScalarUint16
	case gltfComponentTypeUnsignedInt:
		scalar = layout.ScalarUint32
	default:
		return nil, 0, fmt.Errorf("index accessor %d component type %d: %w", accessorIndex, acc.ComponentType, ErrUnsupportedAccessor)
	}

	view := buffer.New(buffer.WithBytes(data)).ViewAs(scalar)
	result := make([]uint32, view.Len())
	for i := range result {
		result[i] = uint32(view.Get(i))
	}
	return result, acc.ComponentType, nil
}

// gltfScalarFormat maps an accessor component type to the scalar format that stores it unchanged.
func gltfScalarFormat(componentType int, normalized bool) (layout.ScalarFormat, error) {
	switch componentType {
	case gltfComponentTypeFloat:
		return layout.ScalarFloat32, nil
	case gltfComponentTypeUnsignedByte:
		if normalized {
			return layout.ScalarUnorm8, nil
		}
		return layout.ScalarUint8, nil
	case gltfComponentTypeByte:
		if normalized {
			return layout.ScalarSnorm8, nil
		}
		return layout.ScalarSint8, nil
	case gltfComponentTypeUnsignedShort:
		if normalized {
			return layout.ScalarUnorm16, nil
		}
		return layout.ScalarUint16, nil
	case gltfComponentTypeShort:
		if normalized {
			return layout.ScalarSnorm16, nil
		}
		return layout.ScalarSint16, nil
	case gltfComponentTypeUnsignedInt:
		return layout.ScalarUint32, nil
	default:
		return layout.ScalarUndefined, fmt.Errorf("component type %d: %w", componentType, ErrUnsupportedAccessor)
	}
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type. Matrix types map to 0.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	default:
		return 0
	}
}
