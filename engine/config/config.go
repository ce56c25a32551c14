package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-geometry/common"
	"github.com/Carmen-Shannon/oxy-geometry/engine/buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/index_buffer"
	"github.com/Carmen-Shannon/oxy-geometry/engine/layout"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the TOML-backed configuration of the geometry subsystem.
//
//	[log]
//	level = "debug"
//
//	[buffer]
//	growth_factor = 2
//	initial_capacity = 1024
//
//	[[geometry.default_attributes]]
//	name = "position"
//	format = "float32x3"
//
//	[uploader]
//	workers = 4
//	idle_timeout = "1s"
type Config struct {
	Log      LogConfig      `toml:"log"`
	Buffer   BufferConfig   `toml:"buffer"`
	Geometry GeometryConfig `toml:"geometry"`
	Uploader UploaderConfig `toml:"uploader"`
}

// LogConfig configures the shared logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// BufferConfig configures every growable buffer created from this configuration.
type BufferConfig struct {
	GrowthFactor    int `toml:"growth_factor"`
	InitialCapacity int `toml:"initial_capacity"`
	MaxCapacity     int `toml:"max_capacity"`
}

// AttributeConfig declares one vertex attribute of a geometry's default layout.
type AttributeConfig struct {
	Name   string        `toml:"name"`
	Format layout.Format `toml:"format"`

	// Buffer names the vertex buffer the attribute lives in; empty means the default buffer.
	Buffer string `toml:"buffer,omitempty"`

	ShaderLocation *int `toml:"shader_location,omitempty"`
	Offset         *int `toml:"offset,omitempty"`
}

// GeometryConfig configures the attributes and index buffer new geometries start with.
type GeometryConfig struct {
	DefaultAttributes []AttributeConfig `toml:"default_attributes"`
	Indexed           bool              `toml:"indexed"`
	IndexFormat       string            `toml:"index_format"`
}

// UploaderConfig configures the device uploader and its staging worker pool.
type UploaderConfig struct {
	Workers     int    `toml:"workers"`
	QueueSize   int    `toml:"queue_size"`
	IdleTimeout string `toml:"idle_timeout"`

	// CopyAlignment is the byte alignment partial uploads are widened to.
	CopyAlignment int `toml:"copy_alignment"`
}

// Default returns the built-in configuration: power-of-two growth, a position/color default layout with 32 bit
// indices available, and a four worker uploader aligned to WebGPU's 4 byte copy granularity.
func Default() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Buffer: BufferConfig{
			GrowthFactor: buffer.DefaultGrowthFactor,
			MaxCapacity:  buffer.DefaultMaxCapacity,
		},
		Geometry: GeometryConfig{
			DefaultAttributes: []AttributeConfig{
				{Name: "position", Format: layout.Float32x3},
				{Name: "color", Format: layout.Uint8x4},
			},
			IndexFormat: index_buffer.IndexFormatUint32.String(),
		},
		Uploader: UploaderConfig{
			Workers:       4,
			QueueSize:     256,
			IdleTimeout:   "1s",
			CopyAlignment: 4,
		},
	}
}

// Parse decodes TOML data. Missing values fall back to Default, and the result is validated.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: a decode error or ErrInvalidConfig
func Parse(data []byte) (Config, error) {
	var c Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	d := Default()
	c.Log.Level = common.Coalesce(c.Log.Level, d.Log.Level)
	c.Buffer.GrowthFactor = common.Coalesce(c.Buffer.GrowthFactor, d.Buffer.GrowthFactor)
	c.Buffer.MaxCapacity = common.Coalesce(c.Buffer.MaxCapacity, d.Buffer.MaxCapacity)
	if c.Geometry.DefaultAttributes == nil {
		c.Geometry.DefaultAttributes = d.Geometry.DefaultAttributes
	}
	c.Geometry.IndexFormat = common.Coalesce(c.Geometry.IndexFormat, d.Geometry.IndexFormat)
	c.Uploader.Workers = common.Coalesce(c.Uploader.Workers, d.Uploader.Workers)
	c.Uploader.QueueSize = common.Coalesce(c.Uploader.QueueSize, d.Uploader.QueueSize)
	c.Uploader.IdleTimeout = common.Coalesce(c.Uploader.IdleTimeout, d.Uploader.IdleTimeout)
	c.Uploader.CopyAlignment = common.Coalesce(c.Uploader.CopyAlignment, d.Uploader.CopyAlignment)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads and parses a TOML file.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the decoded configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks every section for values the subsystem cannot honor.
//
// Returns:
//   - error: ErrInvalidConfig wrapped with the offending key, or nil
func (c Config) Validate() error {
	if c.Buffer.GrowthFactor < 2 {
		return fmt.Errorf("buffer.growth_factor %d must be at least 2: %w", c.Buffer.GrowthFactor, ErrInvalidConfig)
	}
	if c.Buffer.InitialCapacity < 0 || c.Buffer.MaxCapacity <= 0 {
		return fmt.Errorf("buffer capacities must not be negative: %w", ErrInvalidConfig)
	}
	if c.Buffer.InitialCapacity > c.Buffer.MaxCapacity {
		return fmt.Errorf("buffer.initial_capacity %d exceeds max_capacity %d: %w", c.Buffer.InitialCapacity, c.Buffer.MaxCapacity, ErrInvalidConfig)
	}

	seen := make(map[string]bool, len(c.Geometry.DefaultAttributes))
	for _, a := range c.Geometry.DefaultAttributes {
		if a.Name == "" {
			return fmt.Errorf("geometry.default_attributes: attribute without a name: %w", ErrInvalidConfig)
		}
		if seen[a.Name] {
			return fmt.Errorf("geometry.default_attributes: %q declared twice: %w", a.Name, ErrInvalidConfig)
		}
		seen[a.Name] = true
		if err := a.Format.Validate(); err != nil {
			return fmt.Errorf("geometry.default_attributes %q: %w", a.Name, err)
		}
	}
	if _, err := c.Geometry.Format(); err != nil {
		return fmt.Errorf("geometry.index_format: %w", err)
	}

	if c.Uploader.Workers < 1 || c.Uploader.QueueSize < 1 {
		return fmt.Errorf("uploader.workers and uploader.queue_size must be positive: %w", ErrInvalidConfig)
	}
	if _, err := c.Uploader.Timeout(); err != nil {
		return fmt.Errorf("uploader.idle_timeout: %w", err)
	}
	if a := c.Uploader.CopyAlignment; a < 1 || a&(a-1) != 0 {
		return fmt.Errorf("uploader.copy_alignment %d must be a power of two: %w", a, ErrInvalidConfig)
	}
	return nil
}

// Apply pushes process-wide settings, currently the log level, into the shared logger.
//
// Returns:
//   - error: an error if the log level is not recognized
func (c Config) Apply() error {
	if err := common.SetLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	return nil
}

// Options converts the section into growable buffer options.
func (b BufferConfig) Options() []buffer.BufferBuilderOption {
	opts := []buffer.BufferBuilderOption{
		buffer.WithGrowthFactor(b.GrowthFactor),
		buffer.WithMaxCapacity(b.MaxCapacity),
	}
	if b.InitialCapacity > 0 {
		opts = append(opts, buffer.WithInitialCapacity(b.InitialCapacity))
	}
	return opts
}

// Format returns the parsed index format.
func (g GeometryConfig) Format() (index_buffer.IndexFormat, error) {
	return index_buffer.ParseIndexFormat(g.IndexFormat)
}

// Timeout returns the parsed worker idle timeout.
func (u UploaderConfig) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(u.IdleTimeout)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("idle timeout %s must be positive: %w", d, ErrInvalidConfig)
	}
	return d, nil
}
