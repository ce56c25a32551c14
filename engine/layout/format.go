package layout

import (
	"fmt"
	"regexp"
	"strconv"
)

// ScalarFormat identifies the numeric type of a single attribute component.
type ScalarFormat int

const (
	// ScalarUndefined is the zero value and never valid in a declaration.
	ScalarUndefined ScalarFormat = iota
	ScalarUint8
	ScalarUint16
	ScalarUint32
	ScalarSint8
	ScalarSint16
	ScalarSint32
	ScalarUnorm8
	ScalarUnorm16
	ScalarSnorm8
	ScalarSnorm16
	ScalarFloat16
	ScalarFloat32
)

// scalarInfo describes the storage properties of a ScalarFormat.
type scalarInfo struct {
	name       string
	bits       int
	signed     bool
	float      bool
	normalized bool
}

// scalarFormatTable is resolved once per declaration, never per write.
var scalarFormatTable = map[ScalarFormat]scalarInfo{
	ScalarUint8:   {"uint8", 8, false, false, false},
	ScalarUint16:  {"uint16", 16, false, false, false},
	ScalarUint32:  {"uint32", 32, false, false, false},
	ScalarSint8:   {"sint8", 8, true, false, false},
	ScalarSint16:  {"sint16", 16, true, false, false},
	ScalarSint32:  {"sint32", 32, true, false, false},
	ScalarUnorm8:  {"unorm8", 8, false, false, true},
	ScalarUnorm16: {"unorm16", 16, false, false, true},
	ScalarSnorm8:  {"snorm8", 8, true, false, true},
	ScalarSnorm16: {"snorm16", 16, true, false, true},
	ScalarFloat16: {"float16", 16, true, true, false},
	ScalarFloat32: {"float32", 32, true, true, false},
}

// scalarByName is the reverse of scalarFormatTable, keyed by "{kind}{bits}".
var scalarByName = func() map[string]ScalarFormat {
	m := make(map[string]ScalarFormat, len(scalarFormatTable))
	for f, info := range scalarFormatTable {
		m[info.name] = f
	}
	return m
}()

// Valid reports whether s is one of the declared scalar formats.
func (s ScalarFormat) Valid() bool {
	_, ok := scalarFormatTable[s]
	return ok
}

// Bits returns the bit width of one component, or 0 for an invalid format.
func (s ScalarFormat) Bits() int {
	return scalarFormatTable[s].bits
}

// Bytes returns the byte width of one component, or 0 for an invalid format.
func (s ScalarFormat) Bytes() int {
	return scalarFormatTable[s].bits / 8
}

// Signed reports whether the format can hold negative values.
func (s ScalarFormat) Signed() bool {
	return scalarFormatTable[s].signed
}

// Float reports whether the format is an IEEE-754 floating point format.
func (s ScalarFormat) Float() bool {
	return scalarFormatTable[s].float
}

// Normalized reports whether the integer value is interpreted by the GPU as a normalized [0,1] or [-1,1] value.
func (s ScalarFormat) Normalized() bool {
	return scalarFormatTable[s].normalized
}

func (s ScalarFormat) String() string {
	if info, ok := scalarFormatTable[s]; ok {
		return info.name
	}
	return fmt.Sprintf("ScalarFormat(%d)", int(s))
}

// MinComponents and MaxComponents bound the component count of a vertex attribute.
const (
	MinComponents = 1
	MaxComponents = 4
)

// Format is the full type of a vertex attribute: a scalar format repeated Components times.
type Format struct {
	Scalar     ScalarFormat
	Components int
}

// Commonly used attribute formats.
var (
	Float32   = Format{ScalarFloat32, 1}
	Float32x2 = Format{ScalarFloat32, 2}
	Float32x3 = Format{ScalarFloat32, 3}
	Float32x4 = Format{ScalarFloat32, 4}
	Uint8x4   = Format{ScalarUint8, 4}
	Unorm8x4  = Format{ScalarUnorm8, 4}
	Uint32    = Format{ScalarUint32, 1}
	Sint16x2  = Format{ScalarSint16, 2}
)

// NewFormat validates and builds a Format.
//
// Parameters:
//   - scalar: the scalar format of each component
//   - components: the number of components, in [1,4]
//
// Returns:
//   - Format: the validated format
//   - error: ErrInvalidFormat or ErrInvalidComponentCount
func NewFormat(scalar ScalarFormat, components int) (Format, error) {
	f := Format{Scalar: scalar, Components: components}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// Validate checks that the scalar format is known and the component count is within [1,4].
//
// Returns:
//   - error: ErrInvalidFormat or ErrInvalidComponentCount, wrapped with the offending value
func (f Format) Validate() error {
	if !f.Scalar.Valid() {
		return fmt.Errorf("scalar format %v: %w", f.Scalar, ErrInvalidFormat)
	}
	if f.Components < MinComponents || f.Components > MaxComponents {
		return fmt.Errorf("%d components: %w", f.Components, ErrInvalidComponentCount)
	}
	return nil
}

// ComponentBytes returns the byte width of a single component.
func (f Format) ComponentBytes() int {
	return f.Scalar.Bytes()
}

// ByteSize returns bits/8 × components.
func (f Format) ByteSize() int {
	return f.Scalar.Bytes() * f.Components
}

// Alignment returns the required offset alignment: 4 bytes for elements of at least 4 bytes, 2 bytes otherwise.
func (f Format) Alignment() int {
	if f.ByteSize() >= 4 {
		return 4
	}
	return 2
}

// String renders the format using the GPU vertex-format convention, e.g. "float32x3" or "uint32".
func (f Format) String() string {
	if f.Components == 1 {
		return f.Scalar.String()
	}
	return f.Scalar.String() + "x" + strconv.Itoa(f.Components)
}

// formatPattern captures the kind, bit width and optional component count of a format string.
var formatPattern = regexp.MustCompile(`^(uint|sint|unorm|snorm|float)(8|16|32)(?:x(\d+))?$`)

// ParseFormat parses a format string following the `{sign}{kind}{bits}[xN]` convention,
// e.g. "float32x3", "uint8x4", "sint16x2" or "float32". The component count defaults to 1.
//
// Parameters:
//   - s: the format string
//
// Returns:
//   - Format: the parsed format
//   - error: ErrInvalidFormat if the string does not name a known format, ErrInvalidComponentCount if N is outside [1,4]
func ParseFormat(s string) (Format, error) {
	m := formatPattern.FindStringSubmatch(s)
	if m == nil {
		return Format{}, fmt.Errorf("format %q: %w", s, ErrInvalidFormat)
	}

	scalar, ok := scalarByName[m[1]+m[2]]
	if !ok {
		return Format{}, fmt.Errorf("format %q: %w", s, ErrInvalidFormat)
	}

	components := 1
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err != nil {
			return Format{}, fmt.Errorf("format %q: %w", s, ErrInvalidFormat)
		}
		components = n
	}

	f := Format{Scalar: scalar, Components: components}
	if err := f.Validate(); err != nil {
		return Format{}, fmt.Errorf("format %q: %w", s, err)
	}
	return f, nil
}

// MustParseFormat is like ParseFormat but panics on error. Intended for package-level declarations and tests.
func MustParseFormat(s string) Format {
	f, err := ParseFormat(s)
	if err != nil {
		panic(err)
	}
	return f
}

// UnmarshalText implements encoding.TextUnmarshaler so formats can be decoded straight from configuration files.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return []byte(f.String()), nil
}
