package lightdetect

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.Equal(t, Config{NumberOfSamples: 1000, Width: 1024, Height: 512, SampleThreshold: 0.5}, c)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name  string
		opt   Option
		field string
	}{
		{"negative samples", NumberOfSamples(-1), "number_of_samples"},
		{"zero width", Size(0, 10), "width"},
		{"negative height", Size(10, -2), "height"},
		{"threshold zero", SampleThreshold(0), "sample_threshold"},
		{"threshold one", SampleThreshold(1), "sample_threshold"},
		{"threshold NaN", SampleThreshold(math.NaN()), "sample_threshold"},
		{"negative contrast", ContrastExponent(-2), "contrast_exponent"},
		{"infinite contrast", ContrastExponent(math.Inf(1)), "contrast_exponent"},
		{"negative workers", Workers(-1), "workers"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := DefaultConfig()
			tc.opt(&c)
			err := c.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			require.Equal(t, tc.field, ce.Field)
			require.Contains(t, err.Error(), tc.field)
		})
	}
	c := DefaultConfig()
	for _, opt := range []Option{NumberOfSamples(0), NumberOfSamples(1), ContrastExponent(2.2), Workers(4), Size(1, 1)} {
		opt(&c)
		require.NoError(t, c.Validate())
	}
}

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig(writeConfig(t, "partial.json", `{"number_of_samples": 250, "sample_threshold": 0.8}`))
	require.NoError(t, err)
	expected := DefaultConfig()
	expected.NumberOfSamples = 250
	expected.SampleThreshold = 0.8
	require.Equal(t, expected, c)

	c, err = LoadConfig(writeConfig(t, "full.json", `{"number_of_samples": 10, "width": 64, "height": 32, "sample_threshold": 0.25, "contrast_exponent": 2, "workers": 3}`))
	require.NoError(t, err)
	require.Equal(t, Config{NumberOfSamples: 10, Width: 64, Height: 32, SampleThreshold: 0.25, ContrastExponent: 2, Workers: 3}, c)

	c, err = LoadConfig(writeConfig(t, "empty.json", `{}`))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), c)

	_, err = LoadConfig(writeConfig(t, "typo.json", `{"treshold": 0.3}`))
	require.ErrorContains(t, err, "treshold")

	_, err = LoadConfig(writeConfig(t, "invalid.json", `{"width": -4}`))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeConfig(t, "config.yaml", `{}`))
	require.ErrorContains(t, err, ".json")

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWithConfig(t *testing.T) {
	cfg := Config{NumberOfSamples: 20, Width: 8, Height: 4, SampleThreshold: 0.3}
	d, err := New(NumberOfSamples(5), WithConfig(cfg))
	require.NoError(t, err)
	require.Equal(t, cfg, d.Config())
	require.Len(t, d.SamplePoints(), 20)
}
