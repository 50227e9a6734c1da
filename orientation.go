package lightdetect

import (
	"fmt"
	"image"

	"github.com/kovidgoyal/go-parallel"
	"golang.org/x/image/draw"
)

var _ = fmt.Print

// orientation is an EXIF flag that specifies the transformation
// that should be applied to image to display it correctly.
type orientation int

const (
	orientationUnspecified = 0
	orientationNormal      = 1
	orientationFlipH       = 2
	orientationRotate180   = 3
	orientationFlipV       = 4
	orientationTranspose   = 5
	orientationRotate270   = 6
	orientationTransverse  = 7
	orientationRotate90    = 8
)

func asNRGBA64(img image.Image) *image.NRGBA64 {
	if n, ok := img.(*image.NRGBA64); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	ans := image.NewNRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(ans, image.Point{}, img, b, draw.Src, nil)
	return ans
}

// remap builds a width×height image whose pixel (x, y) is pixel source(x, y)
// of src.
func remap(src *image.NRGBA64, width, height int, source func(x, y int) (int, int)) (*image.NRGBA64, error) {
	dst := image.NewNRGBA64(image.Rect(0, 0, width, height))
	err := parallel.Run_in_parallel_over_range(0, func(start, limit int) {
		for y := start; y < limit; y++ {
			row := dst.Pix[y*dst.Stride : y*dst.Stride+width*8]
			for x := range width {
				sx, sy := source(x, y)
				i := sy*src.Stride + sx*8
				copy(row[x*8:x*8+8], src.Pix[i:i+8])
			}
		}
	}, 0, height)
	if err != nil {
		return nil, err
	}
	return dst, nil
}

// FlipH flips the image horizontally (from left to right).
func FlipH(img image.Image) (*image.NRGBA64, error) {
	src := asNRGBA64(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, w, h, func(x, y int) (int, int) { return w - 1 - x, y })
}

// FlipV flips the image vertically (from top to bottom).
func FlipV(img image.Image) (*image.NRGBA64, error) {
	src := asNRGBA64(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, w, h, func(x, y int) (int, int) { return x, h - 1 - y })
}

// Rotate180 rotates the image 180 degrees.
func Rotate180(img image.Image) (*image.NRGBA64, error) {
	src := asNRGBA64(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, w, h, func(x, y int) (int, int) { return w - 1 - x, h - 1 - y })
}

// Rotate90 rotates the image 90 degrees counter-clockwise.
func Rotate90(img image.Image) (*image.NRGBA64, error) {
	src := asNRGBA64(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, h, w, func(x, y int) (int, int) { return w - 1 - y, x })
}

// Rotate270 rotates the image 270 degrees counter-clockwise.
func Rotate270(img image.Image) (*image.NRGBA64, error) {
	src := asNRGBA64(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, h, w, func(x, y int) (int, int) { return y, h - 1 - x })
}

// Transpose flips the image horizontally and rotates 90 degrees counter-clockwise.
func Transpose(img image.Image) (*image.NRGBA64, error) {
	src := asNRGBA64(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, h, w, func(x, y int) (int, int) { return y, x })
}

// Transverse flips the image vertically and rotates 90 degrees counter-clockwise.
func Transverse(img image.Image) (*image.NRGBA64, error) {
	src := asNRGBA64(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return remap(src, h, w, func(x, y int) (int, int) { return w - 1 - y, h - 1 - x })
}

// fixOrientation applies a transform to img corresponding to the given orientation flag.
func fixOrientation(img image.Image, o orientation) (image.Image, error) {
	var f func(image.Image) (*image.NRGBA64, error)
	switch o {
	case orientationFlipH:
		f = FlipH
	case orientationFlipV:
		f = FlipV
	case orientationRotate90:
		f = Rotate90
	case orientationRotate180:
		f = Rotate180
	case orientationRotate270:
		f = Rotate270
	case orientationTranspose:
		f = Transpose
	case orientationTransverse:
		f = Transverse
	default:
		return img, nil
	}
	return f(img)
}
