package lightdetect

import (
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"time"

	"github.com/kettek/apng"
	"github.com/kovidgoyal/lightdetect/types"
)

var _ = fmt.Print

// Frame is one frame of a panorama sequence, such as a time lapse of the
// sky stored as an animated GIF or PNG.
type Frame struct {
	Number      uint
	X, Y        int
	Image       image.Image `json:"-"`
	Delay       time.Duration
	ComposeOnto uint
	Replace     bool // Do a simple pixel replacement rather than a full alpha blend when compositing this frame
}

// Image is a decoded panorama file. Still images have a single frame.
type Image struct {
	Frames        []*Frame
	Format        types.Format
	Width, Height int
	LoopCount     uint        // 0 means loop forever, 1 means loop once, ...
	DefaultImage  image.Image `json:"-"` // a "default image" for an animation that is not part of the actual animation
}

// GIF delays are in hundredths of a second. Browsers play delays of 0 or 1
// at 100ms, so do the same.
func gifDelay(centiseconds int) time.Duration {
	if centiseconds <= 1 {
		return 100 * time.Millisecond
	}
	return time.Duration(centiseconds) * 10 * time.Millisecond
}

func (self *Image) populate_from_apng(p *apng.APNG) {
	self.LoopCount = p.LoopCount
	prev_disposal := apng.DISPOSE_OP_BACKGROUND
	var prev_compose_onto uint
	for _, f := range p.Frames {
		if f.IsDefault {
			self.DefaultImage = f.Image
			continue
		}
		b := f.Image.Bounds()
		frame := Frame{Number: uint(len(self.Frames) + 1), Image: f.Image, X: f.XOffset + b.Min.X, Y: f.YOffset + b.Min.Y,
			Replace: f.BlendOp == apng.BLEND_OP_SOURCE,
			Delay:   time.Duration(float64(time.Second) * f.GetDelay())}
		switch prev_disposal {
		case apng.DISPOSE_OP_NONE:
			frame.ComposeOnto = frame.Number - 1
		case apng.DISPOSE_OP_PREVIOUS:
			frame.ComposeOnto = prev_compose_onto
		}
		prev_disposal, prev_compose_onto = int(f.DisposeOp), frame.ComposeOnto
		self.Frames = append(self.Frames, &frame)
	}
	if len(self.Frames) == 0 && self.DefaultImage != nil {
		self.Frames = append(self.Frames, &Frame{Number: 1, Image: self.DefaultImage, Replace: true})
		self.DefaultImage = nil
	}
}

func (self *Image) populate_from_gif(g *gif.GIF) {
	prev_disposal := uint8(gif.DisposalBackground)
	var prev_compose_onto uint
	for i, img := range g.Image {
		b := img.Bounds()
		frame := Frame{Number: uint(len(self.Frames) + 1), Image: img, X: b.Min.X, Y: b.Min.Y, Delay: gifDelay(g.Delay[i])}
		switch prev_disposal {
		case gif.DisposalNone, gif.DisposalBackground:
			// Browsers treat restore to background as do not dispose
			frame.ComposeOnto = frame.Number - 1
		case gif.DisposalPrevious:
			frame.ComposeOnto = prev_compose_onto
		}
		prev_disposal, prev_compose_onto = g.Disposal[i], frame.ComposeOnto
		self.Frames = append(self.Frames, &frame)
	}
	switch {
	case g.LoopCount == 0:
		self.LoopCount = 0
	case g.LoopCount < 0:
		self.LoopCount = 1
	default:
		self.LoopCount = uint(g.LoopCount) + 1
	}
}

func cloneRGBA64(img *image.RGBA64) *image.RGBA64 {
	ans := *img
	ans.Pix = append([]uint8(nil), img.Pix...)
	return &ans
}

// covers reports whether f alone fills a width×height canvas.
func (f *Frame) covers(width, height int) bool {
	return f.X == 0 && f.Y == 0 && f.Image.Bounds().Size() == image.Pt(width, height)
}

// Coalesce all animation frames so that each frame is a full panorama, the
// snapshot of the animation at that instant.
func (self *Image) Coalesce() {
	if len(self.Frames) == 0 || (len(self.Frames) == 1 && self.Frames[0].covers(self.Width, self.Height)) {
		return
	}
	canvases := make([]*image.RGBA64, len(self.Frames))
	for i, f := range self.Frames {
		var canvas *image.RGBA64
		if f.ComposeOnto == 0 || int(f.ComposeOnto) > i {
			canvas = image.NewRGBA64(image.Rect(0, 0, self.Width, self.Height))
		} else {
			canvas = cloneRGBA64(canvases[f.ComposeOnto-1])
		}
		b := f.Image.Bounds()
		op := draw.Over
		if f.Replace {
			op = draw.Src
		}
		draw.Draw(canvas, image.Rect(f.X, f.Y, f.X+b.Dx(), f.Y+b.Dy()), f.Image, b.Min, op)
		canvases[i] = canvas
		f.Image = canvas
		f.X, f.Y = 0, 0
		f.ComposeOnto = 0
		f.Replace = true
	}
}

// Panoramas returns the full size image of every frame, coalescing the
// animation first if needed.
func (self *Image) Panoramas() []image.Image {
	self.Coalesce()
	ans := make([]image.Image, len(self.Frames))
	for i, f := range self.Frames {
		ans[i] = f.Image
	}
	return ans
}

// Still returns the image to use when only one panorama is wanted: the
// default image of an animation, or else the first frame drawn onto a full
// size canvas. The frames themselves are left untouched.
func (self *Image) Still() image.Image {
	if self.DefaultImage != nil {
		return self.DefaultImage
	}
	f := self.Frames[0]
	if self.Width <= 0 || self.Height <= 0 || f.covers(self.Width, self.Height) {
		return f.Image
	}
	canvas := image.NewRGBA64(image.Rect(0, 0, self.Width, self.Height))
	b := f.Image.Bounds()
	draw.Draw(canvas, image.Rect(f.X, f.Y, f.X+b.Dx(), f.Y+b.Dy()), f.Image, b.Min, draw.Src)
	return canvas
}

// Delays are stored in milliseconds when they fit, centiseconds otherwise.
func delayFraction(d time.Duration) (num, den uint16) {
	ms := d.Milliseconds()
	switch {
	case ms <= 0:
		return 0, 1
	case ms <= 0xffff:
		return uint16(ms), 1000
	case ms/10 <= 0xffff:
		return uint16(ms / 10), 100
	}
	return 0xffff, 1
}

func (self *Image) as_apng() (ans apng.APNG) {
	ans.LoopCount = self.LoopCount
	for _, f := range self.Frames {
		d := apng.Frame{
			DisposeOp: apng.DISPOSE_OP_NONE, BlendOp: apng.BLEND_OP_SOURCE, XOffset: f.X, YOffset: f.Y, Image: f.Image,
		}
		d.DelayNumerator, d.DelayDenominator = delayFraction(f.Delay)
		ans.Frames = append(ans.Frames, d)
	}
	return
}

// EncodeAsPNG writes a still PNG for single frame images and an animated
// PNG otherwise. Frames are coalesced before encoding.
func (self *Image) EncodeAsPNG(w io.Writer) error {
	if len(self.Frames) == 0 {
		return fmt.Errorf("lightdetect: cannot encode an image with no frames")
	}
	if len(self.Frames) == 1 {
		return png.Encode(w, self.Frames[0].Image)
	}
	self.Coalesce()
	return apng.Encode(w, self.as_apng())
}

// Sequence wraps equally sized images, such as the normalised fields of
// every frame of a panorama animation, as an Image with the given frame
// delay.
func Sequence(delay time.Duration, images ...image.Image) (*Image, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("lightdetect: a sequence needs at least one image")
	}
	b := images[0].Bounds()
	ans := &Image{Format: types.PNG, Width: b.Dx(), Height: b.Dy()}
	for i, img := range images {
		if img.Bounds().Size() != b.Size() {
			return nil, fmt.Errorf("lightdetect: image %d of the sequence is %v, expected %v", i, img.Bounds().Size(), b.Size())
		}
		ans.Frames = append(ans.Frames, &Frame{Number: uint(i + 1), Image: img, Delay: delay, Replace: true, ComposeOnto: 0})
	}
	return ans, nil
}
