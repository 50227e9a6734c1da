package types

import (
	"fmt"
	"strings"
)

var _ = fmt.Print

// Format is a panorama image file format.
type Format int

// Image file formats.
const (
	UNKNOWN Format = iota
	JPEG
	PNG
	GIF
	TIFF
	WEBP
	BMP
)

var FormatExts = map[string]Format{
	"jpg":  JPEG,
	"jpeg": JPEG,
	"png":  PNG,
	"apng": PNG,
	"gif":  GIF,
	"tif":  TIFF,
	"tiff": TIFF,
	"webp": WEBP,
	"bmp":  BMP,
}

var formatNames = map[Format]string{
	UNKNOWN: "unknown",
	JPEG:    "JPEG",
	PNG:     "PNG",
	GIF:     "GIF",
	TIFF:    "TIFF",
	WEBP:    "WEBP",
	BMP:     "BMP",
}

func (f Format) String() string {
	if ans, ok := formatNames[f]; ok {
		return ans
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatFromDecoderName maps the name registered with image.RegisterFormat
// to a Format. The animated PNG decoder registers itself for every PNG
// file as "apng".
func FormatFromDecoderName(x string) Format {
	switch strings.ToUpper(x) {
	case "JPEG", "JPG":
		return JPEG
	case "PNG", "APNG":
		return PNG
	case "GIF":
		return GIF
	case "TIFF", "TIF":
		return TIFF
	case "WEBP":
		return WEBP
	case "BMP":
		return BMP
	}
	return UNKNOWN
}

// Channel selects how a colour pixel is reduced to the single brightness
// value that light detection works on.
type Channel int

const (
	// LUMINANCE weights R, G and B with the Rec. 709 coefficients.
	LUMINANCE Channel = iota
	// RED uses the red component only.
	RED
	// AVERAGE gives R, G and B equal weight.
	AVERAGE
	// REC601 weights R, G and B with the Rec. 601 coefficients used by
	// standard definition video.
	REC601
)

var channelNames = map[Channel]string{
	LUMINANCE: "luminance",
	RED:       "red",
	AVERAGE:   "average",
	REC601:    "rec601",
}

func (c Channel) String() string {
	return channelNames[c]
}

// ParseChannel is the inverse of Channel.String.
func ParseChannel(x string) (Channel, error) {
	for c, name := range channelNames {
		if strings.EqualFold(name, x) {
			return c, nil
		}
	}
	return LUMINANCE, fmt.Errorf("unknown channel: %#v", x)
}

func (c Channel) MarshalText() ([]byte, error) {
	if _, ok := channelNames[c]; !ok {
		return nil, fmt.Errorf("unknown channel: %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Channel) UnmarshalText(b []byte) (err error) {
	*c, err = ParseChannel(string(b))
	return
}
