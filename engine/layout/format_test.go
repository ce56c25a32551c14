package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in         string
		scalar     ScalarFormat
		components int
		byteSize   int
	}{
		{"float32x3", ScalarFloat32, 3, 12},
		{"float32", ScalarFloat32, 1, 4},
		{"uint8x4", ScalarUint8, 4, 4},
		{"sint16x2", ScalarSint16, 2, 4},
		{"unorm8x2", ScalarUnorm8, 2, 2},
		{"snorm16x4", ScalarSnorm16, 4, 8},
		{"float16x2", ScalarFloat16, 2, 4},
		{"uint32x4", ScalarUint32, 4, 16},
		{"sint8", ScalarSint8, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			f, err := ParseFormat(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.scalar, f.Scalar)
			assert.Equal(t, tc.components, f.Components)
			assert.Equal(t, tc.byteSize, f.ByteSize())
			assert.Equal(t, tc.in, f.String())
		})
	}
}

func TestParseFormatErrors(t *testing.T) {
	for _, in := range []string{"", "float64x2", "float8", "unorm32", "vec3f", "uint8x", "float32x3 "} {
		_, err := ParseFormat(in)
		assert.ErrorIs(t, err, ErrInvalidFormat, in)
	}
	for _, in := range []string{"float32x0", "float32x5", "uint8x16"} {
		_, err := ParseFormat(in)
		assert.ErrorIs(t, err, ErrInvalidComponentCount, in)
	}
}

func TestFormatAlignment(t *testing.T) {
	assert.Equal(t, 4, Float32x3.Alignment())
	assert.Equal(t, 4, Uint8x4.Alignment())
	assert.Equal(t, 2, MustParseFormat("uint8x2").Alignment())
	assert.Equal(t, 2, MustParseFormat("sint16").Alignment())
	assert.Equal(t, 2, MustParseFormat("uint8").Alignment())
}

func TestScalarFormatProperties(t *testing.T) {
	assert.True(t, ScalarSnorm8.Signed())
	assert.True(t, ScalarSnorm8.Normalized())
	assert.False(t, ScalarUnorm16.Signed())
	assert.True(t, ScalarFloat16.Float())
	assert.Equal(t, 2, ScalarFloat16.Bytes())
	assert.False(t, ScalarUndefined.Valid())
	assert.Equal(t, 0, ScalarUndefined.Bytes())
}

func TestFormatText(t *testing.T) {
	var f Format
	require.NoError(t, f.UnmarshalText([]byte("unorm8x4")))
	assert.Equal(t, Unorm8x4, f)

	text, err := f.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "unorm8x4", string(text))

	assert.Error(t, f.UnmarshalText([]byte("bogus")))
}
