// Package graph links bright sphere samples into a proximity graph and
// splits that graph into connected components.
//
// Two samples are joined when they are close on the sphere and the
// panorama stays bright along the great circle between them, so each
// component is one contiguous bright region.
package graph

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/lightdetect/sphere"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = fmt.Print

// Sampler returns the normalised brightness seen in a direction.
type Sampler interface {
	AtDirection(p r3.Vec) float64
}

// Graph is an undirected graph over light sample indices. Edges holds
// each edge once as {i, j} with i < j, Adjacent holds it from both ends.
type Graph struct {
	Adjacent [][]int  `json:"adjacent"`
	Edges    [][2]int `json:"edges"`
}

// New returns a graph with n nodes and no edges.
func New(n int) *Graph {
	ans := &Graph{Adjacent: make([][]int, n), Edges: [][2]int{}}
	for i := range ans.Adjacent {
		ans.Adjacent[i] = []int{}
	}
	return ans
}

// NumNodes returns the number of nodes in g.
func (g *Graph) NumNodes() int { return len(g.Adjacent) }

// AddEdge joins i and j.
func (g *Graph) AddEdge(i, j int) {
	if i > j {
		i, j = j, i
	}
	g.Adjacent[i] = append(g.Adjacent[i], j)
	g.Adjacent[j] = append(g.Adjacent[j], i)
	g.Edges = append(g.Edges, [2]int{i, j})
}

// Params controls which pairs of samples are joined.
type Params struct {
	// NumberOfSamples is the size of the full sphere sample set the light
	// samples were drawn from, it sets the expected spacing between samples.
	NumberOfSamples int
	// Width is the width of the luminance raster in pixels, it sets the
	// step length of the continuity walk.
	Width int
	// Threshold is the brightness a point must exceed to count as lit.
	Threshold float64
	// Workers bounds the number of goroutines, 0 means GOMAXPROCS.
	Workers int
}

var ErrParams = errors.New("graph: invalid parameters")

func (p Params) validate() error {
	if p.NumberOfSamples <= 0 {
		return fmt.Errorf("%w: number of samples must be positive, got %d", ErrParams, p.NumberOfSamples)
	}
	if p.Width <= 0 {
		return fmt.Errorf("%w: raster width must be positive, got %d", ErrParams, p.Width)
	}
	return nil
}

// MaxDistance is the largest angle, in radians, between two samples that
// can still be joined: one and a half times the expected sample spacing.
func (p Params) MaxDistance() float64 {
	return 1.5 * sphere.PointDistance(p.NumberOfSamples)
}

// StepDistance is the chord length between consecutive probes of the
// continuity walk. It covers two raster pixel diagonals.
func (p Params) StepDistance() float64 {
	pixel_distance := math.Sqrt2 * 2 * math.Pi / float64(p.Width)
	return 2 * pixel_distance
}

// Connected reports whether the brightness stays above the threshold along
// the great circle from a to b. The chord is cut into steps of
// StepDistance and every interior point is probed. A single dark probe is
// tolerated as noise, two dark probes in a row mean there is a real gap.
func (p Params) Connected(f Sampler, a, b r3.Vec) bool {
	steps := int(math.Floor(r3.Norm(r3.Sub(b, a)) / p.StepDistance()))
	dark := 0
	for k := 1; k < steps; k++ {
		q := sphere.Blend(a, b, float64(k)/float64(steps))
		if f.AtDirection(q) > p.Threshold {
			dark = 0
			continue
		}
		if dark++; dark > 1 {
			return false
		}
	}
	return true
}

// Build creates the proximity graph of samples, see BuildContext.
func Build(samples []r3.Vec, f Sampler, p Params) (*Graph, error) {
	return BuildContext(context.Background(), samples, f, p)
}

// BuildContext tests every unordered pair of samples. Pairs further apart
// than MaxDistance are skipped, the rest are joined when Connected. Rows of
// the pair matrix are processed concurrently and merged in index order, so
// the edge order never depends on scheduling: edges are sorted by i and
// then j. Cancelling ctx abandons the whole build.
func BuildContext(ctx context.Context, samples []r3.Vec, f Sampler, p Params) (*Graph, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	n := len(samples)
	if n == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return New(0), nil
	}
	max_distance := p.MaxDistance()
	partners := make([][]int, n)
	err := parallel.Run_in_parallel_over_range(p.Workers, func(start, limit int) {
		for i := start; i < limit; i++ {
			if ctx.Err() != nil {
				return
			}
			a := samples[i]
			for j := i + 1; j < n; j++ {
				b := samples[j]
				if sphere.Angle(a, b) > max_distance {
					continue
				}
				if p.Connected(f, a, b) {
					partners[i] = append(partners[i], j)
				}
			}
		}
	}, 0, n)
	if err != nil {
		return nil, err
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	g := New(n)
	for i, row := range partners {
		for _, j := range row {
			g.AddEdge(i, j)
		}
	}
	return g, nil
}
