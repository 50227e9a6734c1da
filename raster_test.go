package lightdetect

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/kovidgoyal/lightdetect/colorconv"
	"github.com/kovidgoyal/lightdetect/sphere"
	"github.com/kovidgoyal/lightdetect/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r3"
)

var _ = fmt.Print

func solid(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func requireAll(t *testing.T, raw []float32, expected, delta float64) {
	t.Helper()
	for i, v := range raw {
		require.InDelta(t, expected, float64(v), delta, "value %d", i)
	}
}

func TestRasterChannels(t *testing.T) {
	red := solid(8, 4, color.NRGBA{R: 0xff, A: 0xff})
	testCases := []struct {
		channel  types.Channel
		expected float64
	}{
		{types.LUMINANCE, 0.2126},
		{types.RED, 1},
		{types.AVERAGE, 1.0 / 3},
		{types.REC601, 0.299},
	}
	for _, tc := range testCases {
		t.Run(tc.channel.String(), func(t *testing.T) {
			raw, err := Raster(red, 8, 4, Channel(tc.channel))
			require.NoError(t, err)
			require.Len(t, raw, 32)
			requireAll(t, raw, tc.expected, 1e-6)
		})
	}
}

func TestRasterLinearize(t *testing.T) {
	gray := solid(6, 3, color.NRGBA{R: 128, G: 128, B: 128, A: 0xff})
	raw, err := Raster(gray, 6, 3)
	require.NoError(t, err)
	requireAll(t, raw, 128.0/255, 1e-6)
	raw, err = Raster(gray, 6, 3, Linearize(true))
	require.NoError(t, err)
	requireAll(t, raw, colorconv.SRGBToLinear(128.0/255), 1e-6)
}

func TestRasterRowOrder(t *testing.T) {
	img := solid(4, 2, color.Black)
	for x := range 4 {
		img.Set(x, 0, color.White)
	}
	raw, err := Raster(img, 4, 2, RasterWorkers(1))
	require.NoError(t, err)
	require.Equal(t, []float32{0, 0, 0, 0, 1, 1, 1, 1}, raw)
}

func TestRasterResample(t *testing.T) {
	img := solid(64, 32, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
	for _, interp := range []draw.Interpolator{draw.CatmullRom, draw.ApproxBiLinear, draw.NearestNeighbor} {
		raw, err := Raster(img, 16, 8, Interpolator(interp))
		require.NoError(t, err)
		require.Len(t, raw, 16*8)
		requireAll(t, raw, 128.0/255, 1e-3)
	}
}

func TestRasterErrors(t *testing.T) {
	_, err := Raster(solid(4, 4, color.White), 0, 4)
	require.ErrorIs(t, err, ErrRasterSize)
	_, err = Raster(nil, 4, 4)
	require.ErrorIs(t, err, ErrRasterSize)
	_, err = Raster(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 4, 4)
	require.ErrorIs(t, err, ErrRasterSize)
}

func TestDetectImage(t *testing.T) {
	const width, height, radius = 256, 128, 0.6
	centre := r3.Unit(r3.Vec{X: 1, Y: 0.3, Z: 0.2})
	// image rows run top to bottom, so row y is at V = 1 - (y+0.5)/height
	img := solid(width, height, color.NRGBA{R: 10, G: 10, B: 10, A: 0xff})
	for y := range height {
		for x := range width {
			p := sphere.FromUV(sphere.UV{U: (float64(x) + 0.5) / width, V: 1 - (float64(y)+0.5)/height})
			if sphere.Angle(p, centre) <= radius {
				img.Set(x, y, color.NRGBA{R: 0xff, G: 0xf0, B: 0xe0, A: 0xff})
			}
		}
	}
	d, err := New(NumberOfSamples(600), Size(width, height))
	require.NoError(t, err)
	res, err := d.DetectImage(context.Background(), img)
	require.NoError(t, err)
	requireConsistent(t, d, res)
	require.Len(t, res.LightSources, 1)
	require.Less(t, sphere.Angle(res.LightSources[0].Direction, centre), 0.06)
	require.Less(t, math.Abs(res.LightSources[0].Size-radius), 0.15)

	// the same panorama upside down puts the light below the horizon
	flipped, err := FlipV(img)
	require.NoError(t, err)
	res, err = d.DetectImage(context.Background(), flipped)
	require.NoError(t, err)
	require.Len(t, res.LightSources, 1)
	require.Less(t, res.LightSources[0].Direction.Z, 0.0)
}
