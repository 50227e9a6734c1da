package lightdetect

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kovidgoyal/lightdetect/types"

	"github.com/kettek/apng"
	"github.com/rwcarlsen/goexif/exif"
	exif_tiff "github.com/rwcarlsen/goexif/tiff"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type fileSystem interface {
	Create(string) (io.WriteCloser, error)
	Open(string) (io.ReadCloser, error)
}

type localFS struct{}

func (localFS) Create(name string) (io.WriteCloser, error) { return os.Create(name) }
func (localFS) Open(name string) (io.ReadCloser, error)    { return os.Open(name) }

var fs fileSystem = localFS{}

type decodeConfig struct {
	autoOrientation bool
}

var defaultDecodeConfig = decodeConfig{
	autoOrientation: true,
}

// DecodeOption sets an optional parameter for the Decode and Open functions.
type DecodeOption func(*decodeConfig)

// AutoOrientation returns a DecodeOption that sets the auto-orientation mode.
// If auto-orientation is enabled, the image will be transformed after decoding
// according to the EXIF orientation tag (if present). By default it's enabled.
func AutoOrientation(enabled bool) DecodeOption {
	return func(c *decodeConfig) {
		c.autoOrientation = enabled
	}
}

// exifOrientation returns the orientation stored in the EXIF block of a
// JPEG or TIFF file, if any.
func exifOrientation(data []byte) orientation {
	// Decode returns the tags it could read along with errors for the
	// optional sub directories it could not
	x, _ := exif.Decode(bytes.NewReader(data))
	if x == nil {
		return orientationUnspecified
	}
	orient, err := x.Get(exif.Orientation)
	if err == nil && orient != nil && orient.Format() == exif_tiff.IntVal {
		if v, err := orient.Int(0); err == nil && v > 0 && v < 9 {
			return orientation(v)
		}
	}
	return orientationUnspecified
}

func fix_orientation(ans *Image, o orientation) (err error) {
	if o == orientationUnspecified || o == orientationNormal {
		return nil
	}
	for _, f := range ans.Frames {
		if f.Image, err = fixOrientation(f.Image, o); err != nil {
			return err
		}
	}
	switch o {
	case orientationRotate90, orientationRotate270, orientationTranspose, orientationTransverse:
		ans.Width, ans.Height = ans.Height, ans.Width
	}
	return nil
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// isAnimatedPNG reports whether data is a PNG with an acTL chunk ahead of
// its image data.
func isAnimatedPNG(data []byte) bool {
	if !bytes.HasPrefix(data, pngSignature) {
		return false
	}
	for pos := len(pngSignature); pos+8 <= len(data); {
		size := int(binary.BigEndian.Uint32(data[pos:]))
		switch string(data[pos+4 : pos+8]) {
		case "acTL":
			return true
		case "IDAT", "IEND":
			return false
		}
		pos += 12 + size
	}
	return false
}

func decode_all(data []byte, cfg *decodeConfig) (ans *Image, err error) {
	c, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	ans = &Image{Format: types.FormatFromDecoderName(name), Width: c.Width, Height: c.Height}
	r := bytes.NewReader(data)
	switch {
	case ans.Format == types.GIF:
		g, err := gif.DecodeAll(r)
		if err != nil {
			return nil, err
		}
		if g.Config.Width > 0 && g.Config.Height > 0 {
			ans.Width, ans.Height = g.Config.Width, g.Config.Height
		}
		ans.populate_from_gif(g)
	case ans.Format == types.PNG && isAnimatedPNG(data):
		p, err := apng.DecodeAll(r)
		if err != nil {
			return nil, err
		}
		ans.populate_from_apng(&p)
	default:
		img, _, err := image.Decode(r)
		if err != nil {
			return nil, err
		}
		ans.Frames = append(ans.Frames, &Frame{Number: 1, Image: img, Replace: true})
	}
	if len(ans.Frames) == 0 {
		return nil, fmt.Errorf("lightdetect: the %s image has no frames", ans.Format)
	}
	if cfg.autoOrientation && (ans.Format == types.JPEG || ans.Format == types.TIFF) {
		if err = fix_orientation(ans, exifOrientation(data)); err != nil {
			return nil, err
		}
	}
	return ans, nil
}

func decodeOptions(opts []DecodeOption) *decodeConfig {
	cfg := defaultDecodeConfig
	for _, option := range opts {
		option(&cfg)
	}
	return &cfg
}

// DecodeAll reads a panorama from r including all animation frames if it is
// an animated GIF or PNG.
func DecodeAll(r io.Reader, opts ...DecodeOption) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decode_all(data, decodeOptions(opts))
}

// Decode reads a panorama from r. For animations the default image, or else
// the first frame at full size, is returned.
func Decode(r io.Reader, opts ...DecodeOption) (image.Image, error) {
	ans, err := DecodeAll(r, opts...)
	if err != nil {
		return nil, err
	}
	return ans.Still(), nil
}

// Open loads a panorama from file.
//
// Examples:
//
//	img, err := lightdetect.Open("sky.jpg")
func Open(filename string, opts ...DecodeOption) (image.Image, error) {
	file, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file, opts...)
}

// OpenAll loads every frame of a panorama file.
func OpenAll(filename string, opts ...DecodeOption) (*Image, error) {
	file, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return DecodeAll(file, opts...)
}

// ErrUnsupportedFormat means the given image format is not supported.
var ErrUnsupportedFormat = errors.New("lightdetect: unsupported image format")

// FormatFromExtension parses image format from filename extension:
// "jpg" (or "jpeg"), "png", "gif", "tif" (or "tiff"), "bmp" and "webp" are
// recognised. WEBP can only be decoded.
func FormatFromExtension(ext string) (types.Format, error) {
	if f, ok := types.FormatExts[strings.ToLower(strings.TrimPrefix(ext, "."))]; ok {
		return f, nil
	}
	return -1, ErrUnsupportedFormat
}

// FormatFromFilename parses image format from filename, see
// FormatFromExtension.
func FormatFromFilename(filename string) (types.Format, error) {
	ext := filepath.Ext(filename)
	return FormatFromExtension(ext)
}

type encodeConfig struct {
	jpegQuality         int
	gifNumColors        int
	gifDrawer           draw.Drawer
	pngCompressionLevel png.CompressionLevel
}

var defaultEncodeConfig = encodeConfig{
	jpegQuality:         95,
	gifNumColors:        256,
	gifDrawer:           nil,
	pngCompressionLevel: png.DefaultCompression,
}

// EncodeOption sets an optional parameter for the Encode and Save functions.
type EncodeOption func(*encodeConfig)

// JPEGQuality returns an EncodeOption that sets the output JPEG quality.
// Quality ranges from 1 to 100 inclusive, higher is better. Default is 95.
func JPEGQuality(quality int) EncodeOption {
	return func(c *encodeConfig) {
		c.jpegQuality = quality
	}
}

// GIFDrawer returns an EncodeOption that sets the drawer that is used to
// reduce the image to the GIF palette. Default is draw.FloydSteinberg.
func GIFDrawer(drawer draw.Drawer) EncodeOption {
	return func(c *encodeConfig) {
		c.gifDrawer = drawer
	}
}

// PNGCompressionLevel returns an EncodeOption that sets the compression level
// of the PNG-encoded image. Default is png.DefaultCompression.
func PNGCompressionLevel(level png.CompressionLevel) EncodeOption {
	return func(c *encodeConfig) {
		c.pngCompressionLevel = level
	}
}

// Encode writes the image img to w in the specified format (JPEG, PNG, GIF, TIFF or BMP).
func Encode(w io.Writer, img image.Image, format types.Format, opts ...EncodeOption) error {
	cfg := defaultEncodeConfig
	for _, option := range opts {
		option(&cfg)
	}

	switch format {
	case types.JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: cfg.jpegQuality})

	case types.PNG:
		encoder := png.Encoder{CompressionLevel: cfg.pngCompressionLevel}
		return encoder.Encode(w, img)

	case types.GIF:
		return gif.Encode(w, img, &gif.Options{NumColors: cfg.gifNumColors, Drawer: cfg.gifDrawer})

	case types.TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})

	case types.BMP:
		return bmp.Encode(w, img)
	}

	return ErrUnsupportedFormat
}

// Save saves the image to file with the specified filename.
// The format is determined from the filename extension.
//
// Examples:
//
//	// Save the normalised luminance of a detection as a 16-bit PNG.
//	err := lightdetect.Save(result.Field.Image(), "luminance.png")
func Save(img image.Image, filename string, opts ...EncodeOption) (err error) {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	err = Encode(file, img, f, opts...)
	errc := file.Close()
	if err == nil {
		err = errc
	}
	return err
}
