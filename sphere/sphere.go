// Package sphere generates sample directions on the unit sphere and maps
// them to and from equirectangular texture coordinates.
package sphere

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var _ = fmt.Print

// UV is a normalised equirectangular texture coordinate. U encodes azimuth
// and V encodes elevation, both in [0, 1].
type UV struct {
	U float64 `json:"u"`
	V float64 `json:"v"`
}

func (uv UV) String() string {
	return fmt.Sprintf("UV{%.6f %.6f}", uv.U, uv.V)
}

// golden angle in radians, π·(3-√5)
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// Fibonacci returns n near uniformly distributed unit vectors laid out on a
// golden angle spiral running from the +Z pole (index 0) to the -Z pole
// (index n-1). The result only depends on n. Fewer than two points cannot
// span the spiral, so for n < 2 an empty slice is returned.
func Fibonacci(n int) []r3.Vec {
	if n < 2 {
		return []r3.Vec{}
	}
	ans := make([]r3.Vec, n)
	last := float64(n - 1)
	for i := range ans {
		spiral_angle := float64(i) * goldenAngle
		z := 1 - 2*float64(i)/last
		radius := math.Sqrt(max(0, 1-z*z))
		ans[i] = r3.Vec{X: math.Cos(spiral_angle) * radius, Y: math.Sin(spiral_angle) * radius, Z: z}
	}
	return ans
}

// ToUV projects a unit direction onto the equirectangular map.
func ToUV(p r3.Vec) UV {
	return UV{
		U: math.Atan2(p.Y, p.X)/(2*math.Pi) + 0.5,
		V: math.Asin(clamp(p.Z, -1, 1))/math.Pi + 0.5,
	}
}

// FromUV is the inverse of ToUV. U=0 and U=1 map to the same direction.
func FromUV(uv UV) r3.Vec {
	theta := (uv.U - 0.5) * 2 * math.Pi
	phi := (uv.V - 0.5) * math.Pi
	length := math.Cos(phi)
	return r3.Vec{X: math.Cos(theta) * length, Y: math.Sin(theta) * length, Z: math.Sin(phi)}
}

// ToUVs projects every direction in points.
func ToUVs(points []r3.Vec) []UV {
	ans := make([]UV, len(points))
	for i, p := range points {
		ans[i] = ToUV(p)
	}
	return ans
}

// Angle returns the great circle distance in radians between two unit
// vectors. atan2 keeps it accurate for nearly parallel vectors, where acos of
// the dot product loses most of its precision.
func Angle(a, b r3.Vec) float64 {
	return math.Atan2(r3.Norm(r3.Cross(a, b)), r3.Dot(a, b))
}

// Blend linearly interpolates between a and b and projects the result back
// onto the sphere. Unlike interpolating in UV space this is continuous
// across the U seam and at the poles.
func Blend(a, b r3.Vec, t float64) r3.Vec {
	return r3.Unit(r3.Add(r3.Scale(1-t, a), r3.Scale(t, b)))
}

// PointDistance is the expected angular spacing, in radians, of n points
// spread evenly over the sphere: each covers 4π/n steradians.
func PointDistance(n int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Sqrt(4 * math.Pi / float64(n))
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(hi, x))
}
