package layout

// TableOption is a functional option used to configure a Table during construction.
type TableOption func(*Table)

// WithInitialStride starts the table with a minimum record size, leaving room for data the table does not describe.
//
// Parameters:
//   - stride: the initial stride in bytes
//
// Returns:
//   - TableOption: a function that sets the initial stride
func WithInitialStride(stride int) TableOption {
	return func(t *Table) {
		if stride > 0 {
			t.stride = stride
		}
	}
}

// WithShaderLocationOffset sets the first shader location handed out to auto-assigned attributes.
//
// Parameters:
//   - location: the first auto-assigned shader location
//
// Returns:
//   - TableOption: a function that sets the shader location counter
func WithShaderLocationOffset(location int) TableOption {
	return func(t *Table) {
		if location > 0 {
			t.nextLocation = location
		}
	}
}

// declaration collects the optional parts of a single attribute declaration.
type declaration struct {
	offset         *int
	shaderLocation *int
}

// DeclareOption is a functional option for a single attribute declaration.
type DeclareOption func(*declaration)

// WithOffset places the attribute at an explicit byte offset instead of the next aligned position.
// Misaligned or overlapping offsets are allowed and reported as warnings.
//
// Parameters:
//   - offset: the byte offset within the record
//
// Returns:
//   - DeclareOption: a function that sets the explicit offset
func WithOffset(offset int) DeclareOption {
	return func(d *declaration) {
		d.offset = &offset
	}
}

// WithShaderLocation binds the attribute to an explicit shader location.
//
// Parameters:
//   - location: the shader location
//
// Returns:
//   - DeclareOption: a function that sets the shader location
func WithShaderLocation(location int) DeclareOption {
	return func(d *declaration) {
		d.shaderLocation = &location
	}
}
