package colorconv

import (
	"math"
	"sync"
)

// This package reduces sRGB colours to a single brightness channel for
// light detection. It provides the sRGB decoding function, table driven
// decoding of 16 bit encoded values and the weights that turn an RGB triple
// into one luminance value.
//
// Notes:
// - The Rec. 709 weights are the Y row of the linear sRGB to CIE XYZ (D65)
//   matrix. Applied to linear components they give relative luminance,
//   applied to encoded components they give luma, which is what a grayscale
//   shader computes when it reads an sRGB texture directly.
// - Weighted values are not clipped, weights always sum to one so inputs in
//   [0,1] produce outputs in [0,1].

type Vec3 [3]float64
type Mat3 [3][3]float64

// CIE XYZ (D65) from linear sRGB
var xyzFromLinearSRGB = Mat3{
	{0.4124, 0.3576, 0.1805},
	{0.2126, 0.7152, 0.0722},
	{0.0193, 0.1192, 0.9505},
}

// Luminance weights for R, G and B.
var (
	Rec709  = Vec3(xyzFromLinearSRGB[1])
	Rec601  = Vec3{0.299, 0.587, 0.114}
	Average = Vec3{1.0 / 3, 1.0 / 3, 1.0 / 3}
	Red     = Vec3{1, 0, 0}
)

// Public API

// Luminance returns the weighted sum of r, g and b.
func Luminance(w Vec3, r, g, b float64) float64 {
	return w[0]*r + w[1]*g + w[2]*b
}

// SRGBToLinear removes the sRGB companding from an encoded component in [0,1].
func SRGBToLinear(c float64) float64 {
	if c <= 0 {
		return 0
	}
	if c >= 1 {
		return 1
	}
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

var encoded16ToLinearLUT = sync.OnceValue(func() []float32 {
	ans := make([]float32, 65536)
	for i := range ans {
		ans[i] = float32(SRGBToLinear(float64(i) / 0xffff))
	}
	return ans
})

// From16Bit converts a 16-bit sRGB encoded value to a normalised linear value
// between 0.0 and 1.0 using a look-up table.
func From16Bit(v uint16) float32 {
	return encoded16ToLinearLUT()[v]
}
