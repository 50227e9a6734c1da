package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/kovidgoyal/lightdetect"
	"github.com/kovidgoyal/lightdetect/types"
)

var _ = fmt.Print

type frameResult struct {
	Frame  uint                `json:"frame"`
	Delay  time.Duration       `json:"delay"`
	Result *lightdetect.Result `json:"result"`
}

type options struct {
	cfg          lightdetect.Config
	channel      types.Channel
	linear       bool
	frames       bool
	luminanceOut string
	verbose      bool
}

func parseArgs(args []string, stderr io.Writer) (opts options, panorama string, err error) {
	fs := flag.NewFlagSet("lightdetect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	defaults := lightdetect.DefaultConfig()
	samples := fs.Int("samples", defaults.NumberOfSamples, "Number of directions sampled on the sphere")
	width := fs.Int("width", defaults.Width, "Width of the luminance raster")
	height := fs.Int("height", defaults.Height, "Height of the luminance raster")
	threshold := fs.Float64("threshold", defaults.SampleThreshold, "Normalised brightness a sample must exceed, in (0, 1)")
	contrast := fs.Float64("contrast", defaults.ContrastExponent, "Contrast exponent applied after normalisation, 0 for none")
	workers := fs.Int("workers", defaults.Workers, "Goroutines per detection, 0 for GOMAXPROCS")
	channel := fs.String("channel", types.LUMINANCE.String(), "Brightness channel: luminance, red, average or rec601")
	configFile := fs.String("config", "", "JSON file with detection parameters, flags given explicitly override it")
	fs.BoolVar(&opts.linear, "linear", false, "Decode the sRGB transfer curve before computing brightness")
	fs.BoolVar(&opts.frames, "frames", false, "Detect light sources in every frame of an animated panorama")
	fs.StringVar(&opts.luminanceOut, "luminance-out", "", "Save the normalised luminance field to this image file")
	fs.BoolVar(&opts.verbose, "v", false, "Log stage timings to stderr")
	version := fs.Bool("version", false, "Print the version and exit")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: lightdetect [flags] panorama")
		fs.PrintDefaults()
	}
	if err = fs.Parse(args); err != nil {
		return
	}
	if *version {
		return opts, "", nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, "", fmt.Errorf("expected exactly one panorama, got %d arguments", fs.NArg())
	}
	panorama = fs.Arg(0)

	opts.cfg = defaults
	if *configFile != "" {
		if opts.cfg, err = lightdetect.LoadConfig(*configFile); err != nil {
			return
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "samples":
			opts.cfg.NumberOfSamples = *samples
		case "width":
			opts.cfg.Width = *width
		case "height":
			opts.cfg.Height = *height
		case "threshold":
			opts.cfg.SampleThreshold = *threshold
		case "contrast":
			opts.cfg.ContrastExponent = *contrast
		case "workers":
			opts.cfg.Workers = *workers
		}
	})
	if opts.channel, err = types.ParseChannel(*channel); err != nil {
		return
	}
	return
}

func saveLuminance(path string, results []frameResult) error {
	if len(results) == 1 {
		return lightdetect.Save(results[0].Result.Field.Image(), path)
	}
	images := make([]image.Image, len(results))
	for i, r := range results {
		images[i] = r.Result.Field.Image()
	}
	if f, err := lightdetect.FormatFromFilename(path); err == nil && f == types.PNG {
		seq, err := lightdetect.Sequence(results[0].Delay, images...)
		if err != nil {
			return err
		}
		out, err := os.Create(path)
		if err != nil {
			return err
		}
		if err = seq.EncodeAsPNG(out); err != nil {
			out.Close()
			return err
		}
		return out.Close()
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i, img := range images {
		if err := lightdetect.Save(img, fmt.Sprintf("%s-%05d%s", base, results[i].Frame, ext)); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	opts, panorama, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if panorama == "" {
		fmt.Fprintln(stdout, lightdetect.Version)
		return nil
	}
	det, err := lightdetect.New(lightdetect.WithConfig(opts.cfg))
	if err != nil {
		return err
	}
	img, err := lightdetect.OpenAll(panorama)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", panorama, err)
	}
	frames := []*lightdetect.Frame{{Number: 1, Image: img.Still()}}
	if opts.frames {
		img.Coalesce()
		frames = img.Frames
	}
	results := make([]frameResult, 0, len(frames))
	for _, f := range frames {
		res, err := det.DetectImage(ctx, f.Image, lightdetect.Channel(opts.channel), lightdetect.Linearize(opts.linear))
		if err != nil {
			return fmt.Errorf("detection failed on frame %d: %w", f.Number, err)
		}
		if opts.verbose {
			for _, t := range res.Timings {
				log.Printf("frame %d: %s took %v", f.Number, t.Stage, t.Duration)
			}
			log.Printf("frame %d: %d light samples, %d edges, %d light sources", f.Number, len(res.LightSamples), len(res.Graph.Edges), len(res.LightSources))
		}
		results = append(results, frameResult{Frame: f.Number, Delay: f.Delay, Result: res})
	}
	if opts.luminanceOut != "" {
		if err = saveLuminance(opts.luminanceOut, results); err != nil {
			return err
		}
	}
	var output any = results[0].Result
	if opts.frames {
		output = results
	}
	b, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(b))
	return err
}

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	err = run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
