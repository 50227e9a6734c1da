package lightdetect

import (
	"math"

	"github.com/kovidgoyal/lightdetect/sphere"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// LightSource summarises one cluster of connected light samples.
type LightSource struct {
	// Direction is the unit vector pointing at the centre of the source.
	Direction r3.Vec    `json:"direction"`
	UV        sphere.UV `json:"uv"`
	// Size is the angular radius of the source in radians.
	Size float64 `json:"size"`
	// SolidAngle is the area of the sphere, in steradians, covered by the
	// samples of the source.
	SolidAngle    float64 `json:"solid_angle"`
	MeanLuminance float64 `json:"mean_luminance"`
	PeakLuminance float64 `json:"peak_luminance"`
	// Intensity is MeanLuminance integrated over SolidAngle.
	Intensity float64 `json:"intensity"`
	// Samples are the indices into Result.LightSamples of the members.
	Samples []int `json:"samples"`
}

// aggregate turns every cluster with more than one member into a
// LightSource, keeping the order of clusters.
func aggregate(clusters [][]int, samples []LightSample, number_of_samples int) []LightSource {
	ans := []LightSource{}
	if number_of_samples <= 0 {
		return ans
	}
	per_sample := 4 * math.Pi / float64(number_of_samples)
	half_spacing := sphere.PointDistance(number_of_samples) / 2
	for _, members := range clusters {
		if len(members) < 2 {
			continue
		}
		var sum r3.Vec
		lum := make([]float64, len(members))
		peak := math.Inf(-1)
		for i, m := range members {
			s := samples[m]
			sum = r3.Add(sum, s.Direction)
			lum[i] = s.Luminance
			peak = max(peak, s.Luminance)
		}
		dir := samples[members[0]].Direction
		if r3.Norm(sum) > 1e-12 {
			dir = r3.Unit(sum)
		}
		radius := 0.0
		for _, m := range members {
			radius = max(radius, sphere.Angle(dir, samples[m].Direction))
		}
		mean := stat.Mean(lum, nil)
		solid_angle := float64(len(members)) * per_sample
		ans = append(ans, LightSource{
			Direction:     dir,
			UV:            sphere.ToUV(dir),
			Size:          radius + half_spacing,
			SolidAngle:    solid_angle,
			MeanLuminance: mean,
			PeakLuminance: peak,
			Intensity:     mean * solid_angle,
			Samples:       append([]int(nil), members...),
		})
	}
	return ans
}
