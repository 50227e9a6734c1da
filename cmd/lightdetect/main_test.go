package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kovidgoyal/lightdetect"
	"github.com/stretchr/testify/require"
)

var _ = fmt.Print

// panorama is dark with a bright rectangle around the horizon
func panorama(width, height int) *image.Paletted {
	p := color.Palette{color.Gray{Y: 10}, color.White}
	img := image.NewPaletted(image.Rect(0, 0, width, height), p)
	for y := height * 3 / 8; y < height*5/8; y++ {
		for x := width * 3 / 8; x < width*5/8; x++ {
			img.SetColorIndex(x, y, 1)
		}
	}
	return img
}

func writePanorama(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sky.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, panorama(128, 64)))
	require.NoError(t, f.Close())
	return path
}

func TestRun(t *testing.T) {
	path := writePanorama(t)
	out := filepath.Join(t.TempDir(), "luminance.png")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-samples", "400", "-width", "128", "-height", "64", "-luminance-out", out, path}, &stdout, &stderr)
	require.NoError(t, err)
	var res lightdetect.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	require.Len(t, res.SampleUVs, 400)
	require.Len(t, res.LightSources, 1)
	require.Greater(t, res.LightSources[0].Direction.X, 0.9)

	lum, err := lightdetect.Open(out)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 128, 64), lum.Bounds())
}

func TestRunConfigFile(t *testing.T) {
	path := writePanorama(t)
	cfg := filepath.Join(t.TempDir(), "detect.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"number_of_samples": 50, "width": 64, "height": 32}`), 0o600))
	var stdout, stderr bytes.Buffer
	// flags given on the command line win over the file
	require.NoError(t, run(context.Background(), []string{"-config", cfg, "-samples", "60", "-channel", "red", path}, &stdout, &stderr))
	var res lightdetect.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	require.Len(t, res.SampleUVs, 60)
}

func TestRunFrames(t *testing.T) {
	still := panorama(64, 32)
	g := &gif.GIF{Image: []*image.Paletted{still, still}, Delay: []int{10, 10}}
	path := filepath.Join(t.TempDir(), "sky.gif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(f, g))
	require.NoError(t, f.Close())

	out := filepath.Join(t.TempDir(), "luminance.png")
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-frames", "-v", "-samples", "300", "-width", "64", "-height", "32", "-luminance-out", out, path}, &stdout, &stderr))
	var results []frameResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
	require.Len(t, results, 2)
	for i, r := range results {
		require.Equal(t, uint(i+1), r.Frame)
		require.Len(t, r.Result.LightSources, 1)
	}
	anim, err := lightdetect.OpenAll(out)
	require.NoError(t, err)
	require.Len(t, anim.Frames, 2)
}

func TestRunPartialFirstFrame(t *testing.T) {
	// the only frame is the bright rectangle, the rest of the canvas is empty
	p := color.Palette{color.Black, color.White}
	spot := image.NewPaletted(image.Rect(24, 12, 40, 20), p)
	for i := range spot.Pix {
		spot.Pix[i] = 1
	}
	g := &gif.GIF{Image: []*image.Paletted{spot}, Delay: []int{10}, Config: image.Config{ColorModel: p, Width: 64, Height: 32}}
	path := filepath.Join(t.TempDir(), "sky.gif")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, gif.EncodeAll(f, g))
	require.NoError(t, f.Close())

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-samples", "300", "-width", "64", "-height", "32", path}, &stdout, &stderr))
	var res lightdetect.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &res))
	require.Len(t, res.LightSources, 1)
	require.Greater(t, res.LightSources[0].Direction.X, 0.9)
}

func TestRunErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Error(t, run(context.Background(), nil, &stdout, &stderr))
	require.Contains(t, stderr.String(), "usage: lightdetect")
	require.Error(t, run(context.Background(), []string{"-threshold", "2", writePanorama(t)}, &stdout, &stderr))
	require.Error(t, run(context.Background(), []string{"-channel", "blue", writePanorama(t)}, &stdout, &stderr))
	require.Error(t, run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.png")}, &stdout, &stderr))

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	require.Equal(t, lightdetect.Version.String(), strings.TrimSpace(stdout.String()))
}
