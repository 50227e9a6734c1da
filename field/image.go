package field

import (
	"fmt"
	"image"
	"image/color"
)

var _ = fmt.Print

// Gray is an in-memory image view of a Field whose At method returns
// color.Gray16 values. It shares its pixels with the Field it came from.
type Gray struct {
	// Pix holds brightness values in [0, 1]. Rows are stored bottom up, the
	// pixel at (x, y) is Pix[(Rect.Max.Y-1-y)*Stride + (x-Rect.Min.X)], so
	// the image displays the right way up while the Field keeps V=0 first.
	Pix []float32
	// Stride is the Pix stride (in values) between vertically adjacent pixels.
	Stride int
	// Rect is the image's bounds.
	Rect image.Rectangle
}

// Image returns an image.Image showing f as a grayscale panorama, north up.
func (f *Field) Image() *Gray {
	return &Gray{Pix: f.Values, Stride: f.Width, Rect: image.Rect(0, 0, f.Width, f.Height)}
}

func (p *Gray) ColorModel() color.Model { return color.Gray16Model }

func (p *Gray) Bounds() image.Rectangle { return p.Rect }

func (p *Gray) At(x, y int) color.Color {
	return p.Gray16At(x, y)
}

func (p *Gray) Gray16At(x, y int) color.Gray16 {
	v := p.ValueAt(x, y)
	return color.Gray16{Y: uint16(min(max(v, 0), 1)*0xffff + 0.5)}
}

// ValueAt returns the raw brightness at (x, y), or 0 outside the bounds.
func (p *Gray) ValueAt(x, y int) float32 {
	if !(image.Point{x, y}.In(p.Rect)) {
		return 0
	}
	return p.Pix[p.PixOffset(x, y)]
}

// PixOffset returns the index of the element of Pix that corresponds to
// the pixel at (x, y).
func (p *Gray) PixOffset(x, y int) int {
	return (p.Rect.Max.Y-1-y)*p.Stride + (x - p.Rect.Min.X)
}

// Opaque always reports true, a brightness map has no alpha.
func (p *Gray) Opaque() bool { return true }
