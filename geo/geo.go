// Package geo converts between geographic coordinates and the Web Mercator
// pixel plane used by the viewport.
package geo

import (
	"fmt"
	"math"
)

const (
	// TileSize is the edge of a map tile in pixels. It is baked into the
	// projection scale, see ToPixel.
	TileSize = 256

	// MaxLatitude is the hemisphere-safe latitude limit keeping Mercator finite.
	MaxLatitude = 85.05
	// MaxLongitude bounds longitude; canonical longitudes are in [-180, 180).
	MaxLongitude = 180.0

	earthCircumference = 40075016.686 // meters at equator
)

// LatLng is a geographic position in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (ll LatLng) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", ll.Lat, ll.Lng)
}

// Point is a position on the pixel plane, or a pixel offset.
type Point struct {
	X, Y float64
}

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Bounds is a soft navigable region. A nil side is unbounded and resolves to
// the hemisphere-safe limit.
type Bounds struct {
	MinLat *float64 `json:"minLat,omitempty"`
	MaxLat *float64 `json:"maxLat,omitempty"`
	MinLng *float64 `json:"minLng,omitempty"`
	MaxLng *float64 `json:"maxLng,omitempty"`
}

// Deg returns a pointer to v, for filling Bounds literals.
func Deg(v float64) *float64 { return &v }

// Limits resolves every side of b.
func (b Bounds) Limits() (minLat, maxLat, minLng, maxLng float64) {
	return orDefault(b.MinLat, -MaxLatitude), orDefault(b.MaxLat, MaxLatitude),
		orDefault(b.MinLng, -MaxLongitude), orDefault(b.MaxLng, MaxLongitude)
}

// Contains reports whether ll lies inside b, sides inclusive.
func (b Bounds) Contains(ll LatLng) bool {
	minLat, maxLat, minLng, maxLng := b.Limits()
	return ll.Lat >= minLat && ll.Lat <= maxLat && ll.Lng >= minLng && ll.Lng <= maxLng
}

func orDefault(v *float64, d float64) float64 {
	if v == nil {
		return d
	}
	return *v
}

// Wrap maps v into [min, max) by modular arithmetic, so values crossing an
// edge come back in from the other side.
func Wrap(v, min, max float64) float64 {
	d := max - min
	r := math.Mod(v-min, d)
	if r < 0 {
		r += d
	}
	return r + min
}

// Clamp limits v to [min, max].
func Clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(v, max))
}

// MetersPerPixel returns the ground resolution at latitude and zoom.
func MetersPerPixel(latitude, zoom float64) float64 {
	return earthCircumference * math.Cos(latitude*math.Pi/180) / (math.Exp2(zoom) * TileSize)
}
