/*
Package lightdetect finds the light sources in equirectangular panoramas.

Directions are spread evenly over the unit sphere, the panorama's normalised
luminance is read at each one and the bright samples are joined into a graph
wherever two of them are close and the panorama stays bright between them.
Every connected group of more than one sample is reported as a LightSource
with a direction, angular size and intensity.

Raw luminance rasters are handled by Detector.Detect. Panorama files can be
loaded with Open or OpenAll and turned into rasters with Raster, or passed
directly to Detector.DetectImage.
*/
package lightdetect

import "fmt"

type LightDetectVersion struct {
	Major, Minor, Patch uint
}

func (v LightDetectVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v LightDetectVersion) Equal(o LightDetectVersion) bool {
	return v.Major == o.Major && v.Minor == o.Minor && v.Patch == o.Patch
}

func (v LightDetectVersion) After(o LightDetectVersion) bool {
	switch {
	case v.Major != o.Major:
		return v.Major > o.Major
	case v.Minor != o.Minor:
		return v.Minor > o.Minor
	}
	return v.Patch > o.Patch
}

func (v LightDetectVersion) Before(o LightDetectVersion) bool {
	return !v.Equal(o) && !v.After(o)
}

var Version = LightDetectVersion{0, 3, 0}
