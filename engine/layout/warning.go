package layout

import "fmt"

// WarningKind classifies a non-fatal layout diagnostic.
type WarningKind int

const (
	// AlignmentWarning is raised when an explicit offset does not respect the attribute's alignment.
	AlignmentWarning WarningKind = iota
	// OverlapWarning is raised when an explicit offset makes an attribute's byte range intersect another attribute.
	OverlapWarning
)

func (k WarningKind) String() string {
	switch k {
	case AlignmentWarning:
		return "alignment"
	case OverlapWarning:
		return "overlap"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a non-fatal diagnostic produced while declaring an attribute with an explicit offset.
// Explicit offsets are an escape hatch for advanced packing, so the declaration always proceeds.
type Warning struct {
	Kind WarningKind

	// Attribute is the name of the attribute being declared.
	Attribute string

	// Other is the name of the attribute overlapped, empty for alignment warnings.
	Other string

	// Offset is the explicit byte offset that triggered the warning.
	Offset int

	// Alignment is the alignment the attribute's format requires.
	Alignment int
}

func (w Warning) String() string {
	switch w.Kind {
	case AlignmentWarning:
		return fmt.Sprintf("attribute %q: offset %d is not aligned to %d bytes", w.Attribute, w.Offset, w.Alignment)
	case OverlapWarning:
		return fmt.Sprintf("attribute %q: offset %d overlaps attribute %q", w.Attribute, w.Offset, w.Other)
	default:
		return fmt.Sprintf("attribute %q: %v warning at offset %d", w.Attribute, w.Kind, w.Offset)
	}
}
