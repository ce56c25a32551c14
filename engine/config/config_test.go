package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-geometry/engine/index_buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Geometry.DefaultAttributes, 2)
	assert.Len(t, c.Buffer.Options(), 2)

	f, err := c.Geometry.Format()
	require.NoError(t, err)
	assert.Equal(t, index_buffer.IndexFormatUint32, f)

	d, err := c.Uploader.Timeout()
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}

func TestParse(t *testing.T) {
	doc := `
[log]
level = "debug"

[buffer]
growth_factor = 4
initial_capacity = 256

[geometry]
indexed = true
index_format = "uint32"

[[geometry.default_attributes]]
name = "position"
format = "float32x3"

[[geometry.default_attributes]]
name = "normal"
format = "float32x3"
shader_location = 3

[[geometry.default_attributes]]
name = "offset"
format = "float32x2"
buffer = "instances"

[uploader]
workers = 2
idle_timeout = "250ms"
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 4, c.Buffer.GrowthFactor)
	assert.Equal(t, 256, c.Buffer.InitialCapacity)
	assert.Equal(t, Default().Buffer.MaxCapacity, c.Buffer.MaxCapacity)
	assert.Len(t, c.Buffer.Options(), 3)

	require.Len(t, c.Geometry.DefaultAttributes, 3)
	normal := c.Geometry.DefaultAttributes[1]
	assert.Equal(t, layout.Float32x3, normal.Format)
	require.NotNil(t, normal.ShaderLocation)
	assert.Equal(t, 3, *normal.ShaderLocation)
	assert.Nil(t, normal.Offset)
	assert.Equal(t, "instances", c.Geometry.DefaultAttributes[2].Buffer)
	assert.True(t, c.Geometry.Indexed)

	assert.Equal(t, 2, c.Uploader.Workers)
	assert.Equal(t, 256, c.Uploader.QueueSize)
	assert.Equal(t, 4, c.Uploader.CopyAlignment)
	d, err := c.Uploader.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key":        "[buffer]\nshrink = true\n",
		"bad format":         "[[geometry.default_attributes]]\nname = \"p\"\nformat = \"float64x3\"\n",
		"duplicate name":     "[[geometry.default_attributes]]\nname = \"p\"\nformat = \"float32\"\n[[geometry.default_attributes]]\nname = \"p\"\nformat = \"float32\"\n",
		"growth factor":      "[buffer]\ngrowth_factor = 1\n",
		"initial over max":   "[buffer]\ninitial_capacity = 64\nmax_capacity = 32\n",
		"index format":       "[geometry]\nindex_format = \"uint8\"\n",
		"idle timeout":       "[uploader]\nidle_timeout = \"soon\"\n",
		"copy alignment":     "[uploader]\ncopy_alignment = 3\n",
		"negative workers":   "[uploader]\nworkers = -1\n",
		"unnamed attribute":  "[[geometry.default_attributes]]\nformat = \"float32\"\n",
		"malformed document": "[buffer\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("[uploader]\ncopy_alignment = 3\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = Parse([]byte("[geometry]\nindex_format = \"uint8\"\n"))
	assert.ErrorIs(t, err, index_buffer.ErrInvalidIndexFormat)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geometry.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Log.Level)
	require.NoError(t, c.Apply())
	t.Cleanup(func() { _ = Default().Apply() })

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestApplyRejectsUnknownLevel(t *testing.T) {
	c := Default()
	c.Log.Level = "loud"
	assert.Error(t, c.Apply())
}
