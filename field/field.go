// Package field holds the normalised single channel brightness grid that
// light detection samples, along with the normaliser that builds it from a
// raw luminance raster.
package field

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/lightdetect/sphere"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = fmt.Print

var (
	// ErrSize means the raster does not hold exactly width*height values or
	// the dimensions are not positive.
	ErrSize = errors.New("field: raster size does not match its dimensions")
	// ErrExponent means a contrast exponent that is not a positive number.
	ErrExponent = errors.New("field: contrast exponent must be positive")
)

// Field is a width×height grid of brightness values in [0, 1], stored row
// major. Row 0 is the bottom of the panorama (V=0, the -Z pole) and column 0
// is U=0, which matches the read back order of a rendered luminance target.
type Field struct {
	Width, Height int
	Values        []float32
}

// New wraps values as a Field without normalising them.
func New(width, height int, values []float32) (*Field, error) {
	if err := checkSize(width, height, len(values)); err != nil {
		return nil, err
	}
	return &Field{Width: width, Height: height, Values: values}, nil
}

// Uniform returns a Field with every cell set to v.
func Uniform(width, height int, v float32) *Field {
	values := make([]float32, width*height)
	for i := range values {
		values[i] = v
	}
	return &Field{Width: width, Height: height, Values: values}
}

func checkSize(width, height, n int) error {
	if width <= 0 || height <= 0 || n != width*height {
		return fmt.Errorf("%w: %dx%d needs %d values, got %d", ErrSize, width, height, max(0, width)*max(0, height), n)
	}
	return nil
}

// Index returns the position in Values of the cell containing uv. Indices
// are clamped so that U or V of exactly 1, or slightly outside [0, 1] due
// to rounding, still land on the border cells.
func (f *Field) Index(uv sphere.UV) int {
	column := min(max(int(math.Floor(uv.U*float64(f.Width))), 0), f.Width-1)
	row := min(max(int(math.Floor(uv.V*float64(f.Height))), 0), f.Height-1)
	return row*f.Width + column
}

// At returns the brightness of the cell containing uv.
func (f *Field) At(uv sphere.UV) float64 {
	return float64(f.Values[f.Index(uv)])
}

// AtDirection returns the brightness seen in direction p.
func (f *Field) AtDirection(p r3.Vec) float64 {
	return f.At(sphere.ToUV(p))
}

type normalizeConfig struct {
	exponent    float64
	hasExponent bool
	workers     int
}

// NormalizeOption sets an optional parameter for Normalize.
type NormalizeOption func(*normalizeConfig)

// Contrast returns a NormalizeOption that raises every rescaled value to
// the power e. Exponents below 1 lift mid tones, exponents above 1 leave
// only the brightest peaks standing out.
func Contrast(e float64) NormalizeOption {
	return func(c *normalizeConfig) {
		c.exponent = e
		c.hasExponent = true
	}
}

// Workers returns a NormalizeOption that bounds the number of goroutines
// used to scan the raster. Zero, the default, means GOMAXPROCS.
func Workers(n int) NormalizeOption {
	return func(c *normalizeConfig) {
		c.workers = n
	}
}

// Normalize rescales raw so that its minimum maps to 0 and its maximum to 1,
// optionally applying a contrast curve afterwards. A raster whose values are
// all equal has no range to stretch and normalises to all zeros.
func Normalize(raw []float32, width, height int, opts ...NormalizeOption) (*Field, error) {
	cfg := normalizeConfig{}
	for _, option := range opts {
		option(&cfg)
	}
	if err := checkSize(width, height, len(raw)); err != nil {
		return nil, err
	}
	if cfg.hasExponent && (!(cfg.exponent > 0) || math.IsInf(cfg.exponent, 1)) {
		return nil, fmt.Errorf("%w: %v", ErrExponent, cfg.exponent)
	}
	lo, hi, err := extent(raw, width, height, cfg.workers)
	if err != nil {
		return nil, err
	}
	ans := &Field{Width: width, Height: height, Values: make([]float32, len(raw))}
	if hi == lo {
		return ans, nil
	}
	span := hi - lo
	err = parallel.Run_in_parallel_over_range(cfg.workers, func(start, limit int) {
		for i := start * width; i < limit*width; i++ {
			v := (float64(raw[i]) - lo) / span
			if cfg.hasExponent {
				v = math.Pow(v, cfg.exponent)
			}
			ans.Values[i] = float32(min(max(v, 0), 1))
		}
	}, 0, height)
	if err != nil {
		return nil, err
	}
	return ans, nil
}

// extent finds the global minimum and maximum of raw, scanning bands of
// rows concurrently.
func extent(raw []float32, width, height, workers int) (lo, hi float64, err error) {
	lo, hi = math.Inf(1), math.Inf(-1)
	var mutex sync.Mutex
	err = parallel.Run_in_parallel_over_range(workers, func(start, limit int) {
		blo, bhi := math.Inf(1), math.Inf(-1)
		for _, x := range raw[start*width : limit*width] {
			v := float64(x)
			blo = min(blo, v)
			bhi = max(bhi, v)
		}
		mutex.Lock()
		defer mutex.Unlock()
		lo = min(lo, blo)
		hi = max(hi, bhi)
	}, 0, height)
	return
}
