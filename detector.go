package lightdetect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/lightdetect/field"
	"github.com/kovidgoyal/lightdetect/graph"
	"github.com/kovidgoyal/lightdetect/sphere"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = fmt.Print

// ErrRasterSize means the raster handed to a Detector does not have the
// configured dimensions.
var ErrRasterSize = errors.New("lightdetect: raster size does not match the configured width and height")

// Stage is a step of the detection pipeline. A detection moves through the
// stages strictly in order.
type Stage int

const (
	Idle Stage = iota
	Sampling
	Normalizing
	Filtering
	GraphBuilding
	Clustering
	Aggregating
	Done
)

var stageNames = [...]string{"idle", "sampling", "normalizing", "filtering", "graph-building", "clustering", "aggregating", "done"}

func (s Stage) String() string {
	if s < Idle || s > Done {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	for i, name := range stageNames {
		if name == string(b) {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage: %#v", string(b))
}

// StageTiming is the wall clock time spent in one stage.
type StageTiming struct {
	Stage    Stage         `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// SamplePoint is a direction on the unit sphere and its projection onto the
// panorama.
type SamplePoint struct {
	Direction r3.Vec    `json:"direction"`
	UV        sphere.UV `json:"uv"`
}

// LightSample is a SamplePoint brighter than the sample threshold. Index is
// the position of the SamplePoint in Detector.SamplePoints.
type LightSample struct {
	Index     int       `json:"index"`
	Direction r3.Vec    `json:"direction"`
	UV        sphere.UV `json:"uv"`
	Luminance float64   `json:"luminance"`
}

// Result holds everything a detection produced. Graph nodes and cluster
// members are indices into LightSamples.
type Result struct {
	SampleUVs    []sphere.UV   `json:"sample_uvs"`
	LightSamples []LightSample `json:"light_samples"`
	Graph        *graph.Graph  `json:"graph"`
	Clusters     [][]int       `json:"clusters"`
	LightSources []LightSource `json:"light_sources"`
	Timings      []StageTiming `json:"timings"`
	// Field is the normalised luminance field the samples were read from.
	Field *field.Field `json:"-"`
}

// Detector finds light sources in luminance rasters. It is immutable once
// created and may be used from several goroutines at once.
type Detector struct {
	cfg    Config
	points []SamplePoint
}

// New creates a Detector, validating the configuration and generating the
// sphere samples up front.
func New(opts ...Option) (*Detector, error) {
	cfg := DefaultConfig()
	for _, option := range opts {
		option(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	directions := sphere.Fibonacci(cfg.NumberOfSamples)
	uvs := sphere.ToUVs(directions)
	d := &Detector{cfg: cfg, points: make([]SamplePoint, len(directions))}
	for i, p := range directions {
		d.points[i] = SamplePoint{Direction: p, UV: uvs[i]}
	}
	return d, nil
}

// Config returns the parameters d was created with.
func (d *Detector) Config() Config { return d.cfg }

// SamplePoints returns the sphere samples. The slice must not be modified.
func (d *Detector) SamplePoints() []SamplePoint { return d.points }

// Detect runs a detection on a raw raster, see DetectContext.
func (d *Detector) Detect(raw []float32) (*Result, error) {
	return d.DetectContext(context.Background(), raw)
}

// DetectContext normalises raw, which must hold Width*Height values in
// row major order with row 0 at V=0, and finds the light sources in it.
// Nothing is returned unless every stage completes, cancelling ctx
// abandons the run and returns ctx.Err().
func (d *Detector) DetectContext(ctx context.Context, raw []float32) (*Result, error) {
	if expected := d.cfg.Width * d.cfg.Height; len(raw) != expected {
		return nil, fmt.Errorf("%w: got %d values, %dx%d needs %d", ErrRasterSize, len(raw), d.cfg.Width, d.cfg.Height, expected)
	}
	r := d.start(ctx)
	if err := r.enter(Normalizing); err != nil {
		return nil, err
	}
	opts := []field.NormalizeOption{field.Workers(d.cfg.Workers)}
	if d.cfg.ContrastExponent != 0 {
		opts = append(opts, field.Contrast(d.cfg.ContrastExponent))
	}
	f, err := field.Normalize(raw, d.cfg.Width, d.cfg.Height, opts...)
	if err != nil {
		return nil, err
	}
	return r.finish(f)
}

// DetectField finds the light sources in an already normalised field,
// skipping normalisation. The field must have the configured dimensions.
func (d *Detector) DetectField(ctx context.Context, f *field.Field) (*Result, error) {
	if f == nil || f.Width != d.cfg.Width || f.Height != d.cfg.Height || len(f.Values) != f.Width*f.Height {
		return nil, fmt.Errorf("%w: field does not match %dx%d", ErrRasterSize, d.cfg.Width, d.cfg.Height)
	}
	return d.start(ctx).finish(f)
}

// DetectImage converts a decoded panorama to a luminance raster of the
// configured size with Raster and runs DetectContext on it.
func (d *Detector) DetectImage(ctx context.Context, img image.Image, opts ...RasterOption) (*Result, error) {
	opts = append([]RasterOption{RasterWorkers(d.cfg.Workers)}, opts...)
	raw, err := Raster(img, d.cfg.Width, d.cfg.Height, opts...)
	if err != nil {
		return nil, err
	}
	return d.DetectContext(ctx, raw)
}

type run struct {
	*Detector
	ctx     context.Context
	stage   Stage
	started time.Time
	result  Result
}

func (d *Detector) start(ctx context.Context) *run {
	r := &run{Detector: d, ctx: ctx}
	if r.enter(Sampling) == nil {
		r.result.SampleUVs = make([]sphere.UV, len(d.points))
		for i, p := range d.points {
			r.result.SampleUVs[i] = p.UV
		}
	}
	return r
}

// enter records the time spent in the current stage and moves to s.
func (r *run) enter(s Stage) error {
	now := time.Now()
	if r.stage != Idle {
		r.result.Timings = append(r.result.Timings, StageTiming{Stage: r.stage, Duration: now.Sub(r.started)})
	}
	r.stage, r.started = s, now
	return r.ctx.Err()
}

func (r *run) finish(f *field.Field) (ans *Result, err error) {
	r.result.Field = f
	if err = r.enter(Filtering); err != nil {
		return nil, err
	}
	if r.result.LightSamples, err = filterSamples(r.points, f, r.cfg.SampleThreshold, r.cfg.Workers); err != nil {
		return nil, err
	}

	if err = r.enter(GraphBuilding); err != nil {
		return nil, err
	}
	if len(r.result.LightSamples) == 0 {
		r.result.Graph = graph.New(0)
	} else {
		directions := make([]r3.Vec, len(r.result.LightSamples))
		for i, s := range r.result.LightSamples {
			directions[i] = s.Direction
		}
		p := graph.Params{NumberOfSamples: r.cfg.NumberOfSamples, Width: f.Width, Threshold: r.cfg.SampleThreshold, Workers: r.cfg.Workers}
		if r.result.Graph, err = graph.BuildContext(r.ctx, directions, f, p); err != nil {
			return nil, err
		}
	}

	if err = r.enter(Clustering); err != nil {
		return nil, err
	}
	r.result.Clusters = r.result.Graph.Components()

	if err = r.enter(Aggregating); err != nil {
		return nil, err
	}
	r.result.LightSources = aggregate(r.result.Clusters, r.result.LightSamples, r.cfg.NumberOfSamples)

	if err = r.enter(Done); err != nil {
		return nil, err
	}
	return &r.result, nil
}

// filterSamples keeps the points brighter than threshold, in index order.
func filterSamples(points []SamplePoint, f *field.Field, threshold float64, workers int) ([]LightSample, error) {
	ans := []LightSample{}
	if len(points) == 0 {
		return ans, nil
	}
	luminance := make([]float64, len(points))
	err := parallel.Run_in_parallel_over_range(workers, func(start, limit int) {
		for i := start; i < limit; i++ {
			luminance[i] = f.At(points[i].UV)
		}
	}, 0, len(points))
	if err != nil {
		return nil, err
	}
	for i, v := range luminance {
		if v > threshold {
			ans = append(ans, LightSample{Index: i, Direction: points[i].Direction, UV: points[i].UV, Luminance: v})
		}
	}
	return ans, nil
}
