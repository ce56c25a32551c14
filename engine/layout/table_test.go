package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclarePositionColor(t *testing.T) {
	table := NewTable()

	pos, warnings, err := table.Declare("position", Float32x3)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 0, pos.Offset)
	assert.Equal(t, 0, pos.ShaderLocation)

	color, warnings, err := table.Declare("color", Uint8x4)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 12, color.Offset)
	assert.Equal(t, 1, color.ShaderLocation)

	assert.Equal(t, 16, table.Stride())
	assert.Equal(t, 2, table.Len())
}

func TestDeclareAlignsAutomaticOffsets(t *testing.T) {
	table := NewTable()

	_, _, err := table.Declare("flag", MustParseFormat("uint8"))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Stride())

	// 2-byte element: 1 rounds up to 2.
	small, _, err := table.Declare("pair", MustParseFormat("uint8x2"))
	require.NoError(t, err)
	assert.Equal(t, 2, small.Offset)
	assert.Equal(t, 4, table.Stride())

	_, _, err = table.Declare("half", MustParseFormat("sint16"))
	require.NoError(t, err)
	assert.Equal(t, 6, table.Stride())

	// 4-byte element: 6 rounds up to 8.
	big, _, err := table.Declare("uv", Float32x2)
	require.NoError(t, err)
	assert.Equal(t, 8, big.Offset)
	assert.Equal(t, 16, table.Stride())
}

func TestDeclareByteSizeAndAlignmentForAllFormats(t *testing.T) {
	scalars := []ScalarFormat{
		ScalarUint8, ScalarUint16, ScalarUint32, ScalarSint8, ScalarSint16, ScalarSint32,
		ScalarUnorm8, ScalarUnorm16, ScalarSnorm8, ScalarSnorm16, ScalarFloat16, ScalarFloat32,
	}
	for _, s := range scalars {
		for components := MinComponents; components <= MaxComponents; components++ {
			table := NewTable()
			// An odd leading byte forces every later declaration through the alignment rule.
			_, _, err := table.Declare("pad", Format{ScalarUint8, 1})
			require.NoError(t, err)

			f := Format{s, components}
			attr, _, err := table.Declare("a", f)
			require.NoError(t, err)
			assert.Equal(t, components*s.Bits()/8, attr.ByteSize(), f.String())
			assert.Zero(t, attr.Offset%f.Alignment(), f.String())
			assert.Equal(t, attr.End(), table.Stride(), f.String())
		}
	}
}

func TestDeclareErrors(t *testing.T) {
	table := NewTable()
	_, _, err := table.Declare("position", Float32x3)
	require.NoError(t, err)

	_, _, err = table.Declare("position", Float32x2)
	assert.ErrorIs(t, err, ErrDuplicateAttribute)

	_, _, err = table.Declare("bad", Format{ScalarFloat32, 5})
	assert.ErrorIs(t, err, ErrInvalidComponentCount)

	_, _, err = table.Declare("bad", Format{ScalarFloat32, 0})
	assert.ErrorIs(t, err, ErrInvalidComponentCount)

	_, _, err = table.Declare("bad", Format{ScalarUndefined, 2})
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, _, err = table.Declare("bad", Float32, WithOffset(-4))
	assert.ErrorIs(t, err, ErrInvalidOffset)

	_, _, err = table.Declare("bad", Float32, WithShaderLocation(-1))
	assert.ErrorIs(t, err, ErrInvalidShaderLocation)

	// Failed declarations leave the table untouched.
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 12, table.Stride())

	table.Freeze()
	_, _, err = table.Declare("normal", Float32x3)
	assert.ErrorIs(t, err, ErrFrozenLayoutMutation)
}

func TestDeclareExplicitOffsetWarnings(t *testing.T) {
	table := NewTable()

	_, warnings, err := table.Declare("position", Float32x3, WithOffset(0))
	require.NoError(t, err)
	assert.Empty(t, warnings)

	extra, warnings, err := table.Declare("extra", Float32x2, WithOffset(8))
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, OverlapWarning, warnings[0].Kind)
	assert.Equal(t, "position", warnings[0].Other)
	assert.Equal(t, 8, extra.Offset)
	assert.Equal(t, 16, table.Stride())

	_, warnings, err = table.Declare("odd", Float32, WithOffset(18))
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, AlignmentWarning, warnings[0].Kind)
	assert.Equal(t, 4, warnings[0].Alignment)
	assert.Contains(t, warnings[0].String(), "not aligned")
	assert.Equal(t, 22, table.Stride())
}

func TestShaderLocationCounter(t *testing.T) {
	table := NewTable(WithShaderLocationOffset(2))

	a, _, err := table.Declare("a", Float32)
	require.NoError(t, err)
	assert.Equal(t, 2, a.ShaderLocation)

	b, _, err := table.Declare("b", Float32, WithShaderLocation(7))
	require.NoError(t, err)
	assert.Equal(t, 7, b.ShaderLocation)
	assert.Equal(t, 8, table.NextShaderLocation())

	// An explicit location below the counter still advances it by one.
	c, _, err := table.Declare("c", Float32, WithShaderLocation(0))
	require.NoError(t, err)
	assert.Equal(t, 0, c.ShaderLocation)
	assert.Equal(t, 9, table.NextShaderLocation())

	d, _, err := table.Declare("d", Float32)
	require.NoError(t, err)
	assert.Equal(t, 9, d.ShaderLocation)

	sorted := table.SortedBySlot()
	names := make([]string, len(sorted))
	for i, attr := range sorted {
		names[i] = attr.Name
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, names)
}

func TestInitialStride(t *testing.T) {
	table := NewTable(WithInitialStride(32))
	attr, _, err := table.Declare("position", Float32x3)
	require.NoError(t, err)
	assert.Equal(t, 32, attr.Offset)
	assert.Equal(t, 44, table.Stride())
}

func TestSignatureIgnoresDeclarationOrder(t *testing.T) {
	a := NewTable()
	_, _, err := a.Declare("position", Float32x3, WithOffset(0), WithShaderLocation(0))
	require.NoError(t, err)
	_, _, err = a.Declare("color", Uint8x4, WithOffset(12), WithShaderLocation(1))
	require.NoError(t, err)

	b := NewTable()
	_, _, err = b.Declare("color", Uint8x4, WithOffset(12), WithShaderLocation(1))
	require.NoError(t, err)
	_, _, err = b.Declare("position", Float32x3, WithOffset(0), WithShaderLocation(0))
	require.NoError(t, err)

	assert.Equal(t, "position,float32x3,0,0;color,uint8x4,12,1", a.Signature())
	assert.Equal(t, a.Signature(), b.Signature())
	assert.Equal(t, a.Stride(), b.Stride())

	a.Freeze()
	a.Freeze()
	assert.True(t, a.Frozen())
	assert.Equal(t, b.Signature(), a.Signature())
}

func TestAttributesReturnsCopy(t *testing.T) {
	table := NewTable()
	_, _, err := table.Declare("position", Float32x3)
	require.NoError(t, err)

	attrs := table.Attributes()
	attrs[0].Offset = 99

	got, ok := table.Attribute("position")
	require.True(t, ok)
	assert.Equal(t, 0, got.Offset)
	assert.True(t, table.Has("position"))
	assert.False(t, table.Has("normal"))
}
