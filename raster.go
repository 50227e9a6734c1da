package lightdetect

import (
	"fmt"
	"image"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/lightdetect/colorconv"
	"github.com/kovidgoyal/lightdetect/types"
	"golang.org/x/image/draw"
)

var _ = fmt.Print

type rasterConfig struct {
	channel      types.Channel
	linear       bool
	interpolator draw.Interpolator
	workers      int
}

// RasterOption sets an optional parameter for Raster.
type RasterOption func(*rasterConfig)

// Channel returns a RasterOption that selects how pixels are reduced to a
// single brightness value. Default is types.LUMINANCE.
func Channel(c types.Channel) RasterOption {
	return func(r *rasterConfig) {
		r.channel = c
	}
}

// Linearize returns a RasterOption that decodes the sRGB transfer curve
// before computing brightness. By default the encoded values are used as is.
func Linearize(enabled bool) RasterOption {
	return func(r *rasterConfig) {
		r.linear = enabled
	}
}

// Interpolator returns a RasterOption that sets the resampling filter used
// when the image is not already the requested size. Default is
// draw.CatmullRom.
func Interpolator(i draw.Interpolator) RasterOption {
	return func(r *rasterConfig) {
		r.interpolator = i
	}
}

// RasterWorkers returns a RasterOption that bounds the goroutines used for
// conversion, 0 means GOMAXPROCS.
func RasterWorkers(n int) RasterOption {
	return func(r *rasterConfig) {
		r.workers = n
	}
}

func (r *rasterConfig) weights() colorconv.Vec3 {
	switch r.channel {
	case types.RED:
		return colorconv.Red
	case types.AVERAGE:
		return colorconv.Average
	case types.REC601:
		return colorconv.Rec601
	}
	return colorconv.Rec709
}

// Raster resamples an equirectangular panorama to width×height and reduces
// every pixel to one brightness value, giving the raw raster that
// Detector.DetectContext expects. The top row of img becomes the last row of
// the raster, since raster row 0 is V=0.
func Raster(img image.Image, width, height int, opts ...RasterOption) ([]float32, error) {
	cfg := rasterConfig{channel: types.LUMINANCE, interpolator: draw.CatmullRom}
	for _, option := range opts {
		option(&cfg)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: cannot rasterise to %dx%d", ErrRasterSize, width, height)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: the panorama has no pixels", ErrRasterSize)
	}
	b := img.Bounds()
	rgb := image.NewNRGBA64(image.Rect(0, 0, width, height))
	if b.Dx() == width && b.Dy() == height {
		draw.Copy(rgb, image.Point{}, img, b, draw.Src, nil)
	} else {
		cfg.interpolator.Scale(rgb, rgb.Rect, img, b, draw.Src, nil)
	}
	w := cfg.weights()
	component := func(pix []uint8) float64 {
		v := uint16(pix[0])<<8 | uint16(pix[1])
		if cfg.linear {
			return float64(colorconv.From16Bit(v))
		}
		return float64(v) / 0xffff
	}
	raw := make([]float32, width*height)
	err := parallel.Run_in_parallel_over_range(cfg.workers, func(start, limit int) {
		for y := start; y < limit; y++ {
			src := rgb.Pix[(height-1-y)*rgb.Stride:]
			dst := raw[y*width : (y+1)*width]
			for x := range dst {
				p := src[x*8 : x*8+8]
				dst[x] = float32(colorconv.Luminance(w, component(p[0:2]), component(p[2:4]), component(p[4:6])))
			}
		}
	}, 0, height)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
