package geo

import "github.com/StefanSchroeder/Golang-Ellipsoid/ellipsoid"

var wgs84 = ellipsoid.Init(
	"WGS84",
	ellipsoid.Degrees,
	ellipsoid.Meter,
	ellipsoid.LongitudeIsSymmetric,
	ellipsoid.BearingIsSymmetric)

// Distance returns the geodesic distance between a and b on WGS84, in meters.
func Distance(a, b LatLng) float64 {
	d, _ := wgs84.To(a.Lat, a.Lng, b.Lat, b.Lng)
	return d
}
