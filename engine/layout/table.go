package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-geometry/common"
)

// Table is an ordered, keyed set of attribute declarations describing one interleaved vertex record.
// A Table is mutable until Freeze is called; afterwards every declaration fails with ErrFrozenLayoutMutation
// and the table may be shared and read freely.
type Table struct {
	attributes   []Attribute
	index        map[string]int
	stride       int
	nextLocation int
	frozen       bool
	signature    string
}

// NewTable creates an empty attribute table.
//
// Parameters:
//   - options: a variadic list of TableOption functions to configure the table
//
// Returns:
//   - *Table: the new table
func NewTable(options ...TableOption) *Table {
	t := &Table{
		index: make(map[string]int),
	}
	for _, opt := range options {
		opt(t)
	}
	return t
}

// Declare adds an attribute to the table and computes its offset and shader location.
//
// Without an explicit offset the attribute is placed at the current stride rounded up to its alignment
// (4 bytes for elements of at least 4 bytes, 2 bytes otherwise). An explicit offset is used as-is; a misaligned
// or overlapping explicit offset produces warnings but never fails the declaration.
//
// Parameters:
//   - name: the attribute name, unique within the table
//   - format: the attribute format
//   - options: a variadic list of DeclareOption functions (WithOffset, WithShaderLocation)
//
// Returns:
//   - Attribute: the declared attribute
//   - []Warning: non-fatal diagnostics for explicit offsets
//   - error: ErrFrozenLayoutMutation, ErrInvalidComponentCount, ErrInvalidFormat, ErrDuplicateAttribute,
//     ErrInvalidOffset or ErrInvalidShaderLocation
func (t *Table) Declare(name string, format Format, options ...DeclareOption) (Attribute, []Warning, error) {
	if t.frozen {
		return Attribute{}, nil, fmt.Errorf("declare %q: %w", name, ErrFrozenLayoutMutation)
	}
	if format.Components < MinComponents || format.Components > MaxComponents {
		return Attribute{}, nil, fmt.Errorf("declare %q with %d components: %w", name, format.Components, ErrInvalidComponentCount)
	}
	if err := format.Validate(); err != nil {
		return Attribute{}, nil, fmt.Errorf("declare %q: %w", name, err)
	}
	if _, ok := t.index[name]; ok {
		return Attribute{}, nil, fmt.Errorf("declare %q: %w", name, ErrDuplicateAttribute)
	}

	var d declaration
	for _, opt := range options {
		opt(&d)
	}
	if d.offset != nil && *d.offset < 0 {
		return Attribute{}, nil, fmt.Errorf("declare %q at offset %d: %w", name, *d.offset, ErrInvalidOffset)
	}
	if d.shaderLocation != nil && *d.shaderLocation < 0 {
		return Attribute{}, nil, fmt.Errorf("declare %q at location %d: %w", name, *d.shaderLocation, ErrInvalidShaderLocation)
	}

	alignment := format.Alignment()
	attr := Attribute{
		Name:   name,
		Format: format,
	}

	var warnings []Warning
	if d.offset == nil {
		attr.Offset = common.AlignUp(t.stride, alignment)
	} else {
		attr.Offset = *d.offset
		if !common.IsAligned(attr.Offset, alignment) {
			warnings = append(warnings, Warning{
				Kind:      AlignmentWarning,
				Attribute: name,
				Offset:    attr.Offset,
				Alignment: alignment,
			})
		}
		for _, other := range t.attributes {
			if attr.Overlaps(other) {
				warnings = append(warnings, Warning{
					Kind:      OverlapWarning,
					Attribute: name,
					Other:     other.Name,
					Offset:    attr.Offset,
					Alignment: alignment,
				})
				break
			}
		}
	}

	if d.shaderLocation == nil {
		attr.ShaderLocation = t.nextLocation
		t.nextLocation++
	} else {
		attr.ShaderLocation = *d.shaderLocation
		t.nextLocation = max(*d.shaderLocation+1, t.nextLocation+1)
	}

	t.index[name] = len(t.attributes)
	t.attributes = append(t.attributes, attr)
	t.stride = max(t.stride, attr.End())

	return attr, warnings, nil
}

// Attribute returns the attribute with the given name.
//
// Parameters:
//   - name: the attribute name
//
// Returns:
//   - Attribute: the attribute, zero if absent
//   - bool: false if no attribute with that name was declared
func (t *Table) Attribute(name string) (Attribute, bool) {
	i, ok := t.index[name]
	if !ok {
		return Attribute{}, false
	}
	return t.attributes[i], true
}

// Has reports whether an attribute with the given name was declared.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Attributes returns a copy of the attributes in declaration order.
func (t *Table) Attributes() []Attribute {
	out := make([]Attribute, len(t.attributes))
	copy(out, t.attributes)
	return out
}

// SortedBySlot returns a copy of the attributes ordered by shader location, ties broken by name.
func (t *Table) SortedBySlot() []Attribute {
	out := t.Attributes()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ShaderLocation != out[j].ShaderLocation {
			return out[i].ShaderLocation < out[j].ShaderLocation
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Stride returns the size in bytes of one interleaved record.
func (t *Table) Stride() int {
	return t.stride
}

// Len returns the number of declared attributes.
func (t *Table) Len() int {
	return len(t.attributes)
}

// NextShaderLocation returns the shader location the next auto-assigned attribute would receive.
func (t *Table) NextShaderLocation() int {
	return t.nextLocation
}

// Freeze makes the table immutable. Calling it more than once is a no-op.
func (t *Table) Freeze() {
	if t.frozen {
		return
	}
	t.signature = t.buildSignature()
	t.frozen = true
}

// Frozen reports whether Freeze has been called.
func (t *Table) Frozen() bool {
	return t.frozen
}

// Signature returns the canonical attribute signature: each attribute rendered as "name,format,offset,location",
// ordered by shader location and joined with ";". Tables with the same attributes in any declaration order that
// yields the same offsets and locations share a signature.
func (t *Table) Signature() string {
	if t.frozen {
		return t.signature
	}
	return t.buildSignature()
}

func (t *Table) buildSignature() string {
	sorted := t.SortedBySlot()
	parts := make([]string, len(sorted))
	for i, a := range sorted {
		parts[i] = a.signaturePart()
	}
	return strings.Join(parts, ";")
}
