package layout

import "fmt"

// Attribute is a named, typed component stream within an interleaved vertex record.
// Offset is in bytes from the start of the record.
type Attribute struct {
	Name           string
	Format         Format
	Offset         int
	ShaderLocation int
}

// ByteSize returns the number of bytes the attribute occupies in each record.
func (a Attribute) ByteSize() int {
	return a.Format.ByteSize()
}

// ComponentBytes returns the byte width of one component.
func (a Attribute) ComponentBytes() int {
	return a.Format.ComponentBytes()
}

// Components returns the component count.
func (a Attribute) Components() int {
	return a.Format.Components
}

// End returns the first byte past the attribute within a record.
func (a Attribute) End() int {
	return a.Offset + a.Format.ByteSize()
}

// Overlaps reports whether the byte ranges of a and b intersect.
func (a Attribute) Overlaps(b Attribute) bool {
	return a.Offset < b.End() && b.Offset < a.End()
}

// signaturePart renders the attribute's contribution to a layout signature.
func (a Attribute) signaturePart() string {
	return fmt.Sprintf("%s,%s,%d,%d", a.Name, a.Format, a.Offset, a.ShaderLocation)
}

// StepMode tells the GPU whether a vertex buffer advances per vertex or per instance.
type StepMode int

const (
	StepModeVertex StepMode = iota
	StepModeInstance
)

func (s StepMode) String() string {
	switch s {
	case StepModeVertex:
		return "vertex"
	case StepModeInstance:
		return "instance"
	default:
		return fmt.Sprintf("StepMode(%d)", int(s))
	}
}
