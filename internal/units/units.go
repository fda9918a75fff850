// Package units holds the sensor-frame coordinate conversions and the
// speed units used when reporting track velocities.
package units

import "math"

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Sph2Cart converts azimuth (degrees, clockwise from +Y), elevation
// (degrees above the XY plane) and range into Cartesian sensor-frame
// coordinates. Convention: X=right, Y=forward, Z=up.
func Sph2Cart(azimuthDeg, elevationDeg, rng float64) (x, y, z float64) {
	azimuthRad := azimuthDeg * degToRad
	elevationRad := elevationDeg * degToRad

	cosElevation := math.Cos(elevationRad)

	x = rng * cosElevation * math.Sin(azimuthRad)
	y = rng * cosElevation * math.Cos(azimuthRad)
	z = rng * math.Sin(elevationRad)
	return
}

// Cart2Sph is the inverse of Sph2Cart. Azimuth is normalised to [0, 360).
// The origin maps to (0, 0, 0).
func Cart2Sph(x, y, z float64) (azimuthDeg, elevationDeg, rng float64) {
	rng = math.Sqrt(x*x + y*y + z*z)
	if rng == 0 {
		return 0, 0, 0
	}
	elevationDeg = math.Asin(z/rng) * radToDeg
	azimuthDeg = math.Atan2(x, y) * radToDeg
	if azimuthDeg < 0 {
		azimuthDeg += 360
	}
	return
}
