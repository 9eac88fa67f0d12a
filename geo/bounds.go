package geo

import "github.com/paulmach/orb"

// DefaultPadding is the margin Vicinity adds around a region, in degrees.
var DefaultPadding = LatLng{Lat: 0.005, Lng: 0.018}

// BoundsOf returns the smallest Bounds holding every point. With no points
// every side is left unset.
func BoundsOf(points ...LatLng) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{p.Lng, p.Lat}
	}
	b := mp.Bound()
	return Bounds{
		MinLat: Deg(b.Min.Lat()), MaxLat: Deg(b.Max.Lat()),
		MinLng: Deg(b.Min.Lon()), MaxLng: Deg(b.Max.Lon()),
	}
}

// CenterOf returns the middle of the box spanning points.
func CenterOf(points ...LatLng) LatLng {
	return BoundsOf(points...).Center()
}

// Center returns the middle of b. An axis with an unset side yields 0.
func (b Bounds) Center() LatLng {
	var c LatLng
	if b.MinLat != nil && b.MaxLat != nil {
		c.Lat = (*b.MinLat + *b.MaxLat) / 2
	}
	if b.MinLng != nil && b.MaxLng != nil {
		c.Lng = (*b.MinLng + *b.MaxLng) / 2
	}
	return c
}

// Vicinity grows b by pad on every side. Unset sides are taken as 0, so the
// result is always fully set.
func (b Bounds) Vicinity(pad LatLng) Bounds {
	return Bounds{
		MinLat: Deg(orDefault(b.MinLat, 0) - pad.Lat),
		MaxLat: Deg(orDefault(b.MaxLat, 0) + pad.Lat),
		MinLng: Deg(orDefault(b.MinLng, 0) - pad.Lng),
		MaxLng: Deg(orDefault(b.MaxLng, 0) + pad.Lng),
	}
}

// Vicinity returns the padded box around a single position.
func (ll LatLng) Vicinity(pad LatLng) Bounds {
	return BoundsOf(ll).Vicinity(pad)
}
