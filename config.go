package lightdetect

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

var _ = fmt.Print

// ErrInvalidConfig is wrapped by every *ConfigError.
var ErrInvalidConfig = errors.New("lightdetect: invalid configuration")

// ConfigError reports a configuration value that cannot be used.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// Config enumerates every detection parameter.
type Config struct {
	// NumberOfSamples is the number of directions sampled on the sphere.
	// Fewer than two samples is allowed and detects nothing.
	NumberOfSamples int `json:"number_of_samples"`
	// Width and Height are the dimensions of the luminance raster.
	Width  int `json:"width"`
	Height int `json:"height"`
	// SampleThreshold is the normalised brightness, in (0, 1), a sample has
	// to exceed to count as lit.
	SampleThreshold float64 `json:"sample_threshold"`
	// ContrastExponent, when non-zero, is applied to the normalised raster
	// as a contrast curve.
	ContrastExponent float64 `json:"contrast_exponent,omitempty"`
	// Workers bounds the goroutines used per detection, 0 means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`
}

// DefaultConfig returns the parameters used when no Option overrides them.
func DefaultConfig() Config {
	return Config{
		NumberOfSamples: 1000,
		Width:           1024,
		Height:          512,
		SampleThreshold: 0.5,
	}
}

// Validate checks every field of c.
func (c Config) Validate() error {
	switch {
	case c.NumberOfSamples < 0:
		return &ConfigError{"number_of_samples", fmt.Sprintf("must not be negative, got %d", c.NumberOfSamples)}
	case c.Width <= 0:
		return &ConfigError{"width", fmt.Sprintf("must be positive, got %d", c.Width)}
	case c.Height <= 0:
		return &ConfigError{"height", fmt.Sprintf("must be positive, got %d", c.Height)}
	case !(c.SampleThreshold > 0 && c.SampleThreshold < 1):
		return &ConfigError{"sample_threshold", fmt.Sprintf("must be in (0, 1), got %v", c.SampleThreshold)}
	case c.ContrastExponent < 0 || math.IsNaN(c.ContrastExponent) || math.IsInf(c.ContrastExponent, 0):
		return &ConfigError{"contrast_exponent", fmt.Sprintf("must be a positive number or 0 for none, got %v", c.ContrastExponent)}
	case c.Workers < 0:
		return &ConfigError{"workers", fmt.Sprintf("must not be negative, got %d", c.Workers)}
	}
	return nil
}

// Option sets an optional parameter for New.
type Option func(*Config)

// NumberOfSamples returns an Option that sets how many directions are
// sampled. Default is 1000.
func NumberOfSamples(n int) Option {
	return func(c *Config) {
		c.NumberOfSamples = n
	}
}

// Size returns an Option that sets the luminance raster dimensions.
// Default is 1024x512.
func Size(width, height int) Option {
	return func(c *Config) {
		c.Width, c.Height = width, height
	}
}

// SampleThreshold returns an Option that sets the brightness a sample must
// exceed to count as lit. Default is 0.5.
func SampleThreshold(t float64) Option {
	return func(c *Config) {
		c.SampleThreshold = t
	}
}

// ContrastExponent returns an Option that applies a contrast curve with
// exponent e to the normalised raster. By default no curve is applied.
func ContrastExponent(e float64) Option {
	return func(c *Config) {
		c.ContrastExponent = e
	}
}

// Workers returns an Option that bounds the number of goroutines used by a
// detection. Default is 0, meaning GOMAXPROCS.
func Workers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithConfig returns an Option that replaces every parameter with cfg.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// fileConfig mirrors Config with pointer fields so that a JSON file only
// overrides the parameters it mentions.
type fileConfig struct {
	NumberOfSamples  *int     `json:"number_of_samples,omitempty"`
	Width            *int     `json:"width,omitempty"`
	Height           *int     `json:"height,omitempty"`
	SampleThreshold  *float64 `json:"sample_threshold,omitempty"`
	ContrastExponent *float64 `json:"contrast_exponent,omitempty"`
	Workers          *int     `json:"workers,omitempty"`
}

func (f *fileConfig) applyTo(c *Config) {
	set := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.NumberOfSamples, f.NumberOfSamples)
	set(&c.Width, f.Width)
	set(&c.Height, f.Height)
	set(&c.Workers, f.Workers)
	if f.SampleThreshold != nil {
		c.SampleThreshold = *f.SampleThreshold
	}
	if f.ContrastExponent != nil {
		c.ContrastExponent = *f.ContrastExponent
	}
}

// Largest accepted configuration file.
const maxConfigFileSize = 1024 * 1024

// LoadConfig reads a JSON configuration file. Parameters the file omits keep
// their DefaultConfig values, so partial files are fine. Unknown keys are
// rejected to catch typos. The result is validated.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	clean_path := filepath.Clean(path)
	if ext := filepath.Ext(clean_path); ext != ".json" {
		return c, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(clean_path)
	if err != nil {
		return c, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return c, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	file, err := os.Open(clean_path)
	if err != nil {
		return c, err
	}
	defer file.Close()
	var fc fileConfig
	dec := json.NewDecoder(file)
	dec.DisallowUnknownFields()
	if err = dec.Decode(&fc); err != nil {
		return c, fmt.Errorf("failed to parse config file %s: %w", clean_path, err)
	}
	fc.applyTo(&c)
	return c, c.Validate()
}
