package geo

import (
	"errors"
	"math"
)

// Projection selects the earth model of the Mercator projection.
type Projection uint8

const (
	// Spherical is Web Mercator on a sphere (EPSG:3857).
	Spherical Projection = iota
	// Ellipsoidal is Mercator on the WGS84 ellipsoid (EPSG:3395).
	Ellipsoidal
)

// ErrUnknownProjection is returned when decoding an unrecognised name.
var ErrUnknownProjection = errors.New("geo: unknown projection")

const (
	// wgs84Eccentricity is the first eccentricity of the WGS84 ellipsoid.
	wgs84Eccentricity = 0.0818191908426

	searchIterations = 30
	searchTolerance  = 0.1 // px
)

func (p Projection) String() string {
	switch p {
	case Spherical:
		return "spherical"
	case Ellipsoidal:
		return "ellipsoidal"
	}
	return "unknown"
}

func (p Projection) MarshalText() ([]byte, error) {
	if p > Ellipsoidal {
		return nil, ErrUnknownProjection
	}
	return []byte(p.String()), nil
}

func (p *Projection) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "spherical":
		*p = Spherical
	case "ellipsoidal":
		*p = Ellipsoidal
	default:
		return ErrUnknownProjection
	}
	return nil
}

func (p Projection) eccentricity() float64 {
	if p == Ellipsoidal {
		return wgs84Eccentricity
	}
	return 0
}

// scale is the pixel-plane radius at zoom: the world is 2*pi*rho = 256*2^zoom
// pixels wide.
func scale(zoom float64) float64 {
	return math.Exp2(zoom+7) / math.Pi
}

// ToPixel projects ll onto the pixel plane at zoom. The origin is the
// top-left corner of the world (lng -180, north edge).
func ToPixel(ll LatLng, zoom float64, p Projection) Point {
	rho := scale(zoom)
	phi := ll.Lat * math.Pi / 180
	return Point{
		X: rho * (math.Pi + ll.Lng*math.Pi/180),
		Y: rho * (math.Pi - mercatorY(phi, p.eccentricity())),
	}
}

// ToGeo is the inverse of ToPixel. Latitude and longitude are wrapped into
// their canonical ranges.
func ToGeo(pt Point, zoom float64, p Projection) LatLng {
	rho := scale(zoom)
	lng := (pt.X/rho - math.Pi) * 180 / math.Pi

	var lat float64
	if p == Ellipsoidal {
		lat = searchLatitude(pt.Y, zoom)
	} else {
		lat = (2*math.Atan(math.Exp(math.Pi-pt.Y/rho)) - math.Pi/2) * 180 / math.Pi
	}
	return LatLng{
		Lat: Wrap(lat, -90, 90),
		Lng: Wrap(lng, -MaxLongitude, MaxLongitude),
	}
}

// mercatorY is ln(tan(pi/4 + phi/2) * ((1-e*sin phi)/(1+e*sin phi))^(e/2)).
func mercatorY(phi, e float64) float64 {
	y := math.Log(math.Tan(math.Pi/4 + phi/2))
	if e != 0 {
		s := e * math.Sin(phi)
		y += e / 2 * math.Log((1-s)/(1+s))
	}
	return y
}

// searchLatitude inverts the ellipsoidal y by bisection, walking up from the
// southern limit. The iteration count is capped; past it the lower end of the
// remaining window is returned as is.
func searchLatitude(y, zoom float64) float64 {
	lat := -MaxLatitude
	window := 2 * MaxLatitude
	for i := 0; i < searchIterations; i++ {
		window /= 2
		cand := lat + window
		cy := ToPixel(LatLng{Lat: cand}, zoom, Ellipsoidal).Y
		if math.Abs(cy-y) < searchTolerance {
			return cand
		}
		if cy > y {
			lat = cand
		}
	}
	return lat
}
