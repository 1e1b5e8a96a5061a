// Package lighting converts between sun angles and light directions.
package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/meshview/pkg/math"
)

const (
	degToRad = math32.Pi / 180
	radToDeg = 180 / math32.Pi

	// MaxElevation keeps the sun off the zenith so the light view matrix
	// never looks straight along its up vector.
	MaxElevation float32 = 89
	// MinElevation keeps the sun above the horizon.
	MinElevation float32 = 5
)

// SunDirection converts angles in degrees to a unit vector pointing towards
// the sun. Azimuth rotates around +Y starting at +Z, elevation is measured
// from the horizon.
func SunDirection(azimuth, elevation float32) math.Vec3 {
	az := azimuth * degToRad
	el := elevation * degToRad
	return math.Vec3{
		X: math32.Cos(el) * math32.Sin(az),
		Y: math32.Sin(el),
		Z: math32.Cos(el) * math32.Cos(az),
	}
}

// SunAngles is the inverse of SunDirection. Azimuth is in [0, 360).
func SunAngles(dir math.Vec3) (azimuth, elevation float32) {
	d := dir.Normalize()
	if d == (math.Vec3{}) {
		return 0, 90
	}
	elevation = math32.Asin(clamp(d.Y, -1, 1)) * radToDeg
	azimuth = math32.Atan2(d.X, d.Z) * radToDeg
	if azimuth < 0 {
		azimuth += 360
	}
	return azimuth, elevation
}

// Sun tracks a light direction as angles so it can be nudged interactively.
type Sun struct {
	Azimuth   float32
	Elevation float32
}

// NewSun starts from an arbitrary direction.
func NewSun(dir math.Vec3) *Sun {
	az, el := SunAngles(dir)
	s := &Sun{Azimuth: az, Elevation: el}
	s.Rotate(0, 0)
	return s
}

// Rotate moves the sun by the given angles in degrees and returns the new
// direction. Azimuth wraps, elevation is clamped.
func (s *Sun) Rotate(dAzimuth, dElevation float32) math.Vec3 {
	s.Azimuth = math32.Mod(s.Azimuth+dAzimuth, 360)
	if s.Azimuth < 0 {
		s.Azimuth += 360
	}
	s.Elevation = clamp(s.Elevation+dElevation, MinElevation, MaxElevation)
	return s.Direction()
}

// Direction returns the unit vector towards the sun.
func (s *Sun) Direction() math.Vec3 {
	return SunDirection(s.Azimuth, s.Elevation)
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}
