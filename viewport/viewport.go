// Package viewport holds the logical camera over the map: center, zoom, zoom
// limits, navigable bounds and projection, with synchronous change
// notification.
//
// A Viewport is not safe for concurrent use. All mutation happens on the
// host's UI goroutine (see package clock).
package viewport

import (
	"errors"
	"math"

	"github.com/olablt/gio-viewport/geo"
)

// ErrNoContainer is returned by New when no host surface is given.
var ErrNoContainer = errors.New("viewport: container surface is required")

// Box is the surface rectangle in host pixel space.
type Box struct {
	X, Y          float64
	Width, Height float64
}

// Empty reports whether the box has no measurable area.
func (b Box) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Half returns the offset from the top-left corner to the center.
func (b Box) Half() geo.Point {
	return geo.Pt(b.Width/2, b.Height/2)
}

// Surface is the host rendering surface the viewport is attached to.
type Surface interface {
	Box() Box
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func() Box

func (f SurfaceFunc) Box() Box { return f() }

// Viewport is the map camera. Create it with New.
type Viewport struct {
	container Surface

	center  geo.LatLng
	zoom    float64
	minZoom float64
	maxZoom float64
	bounds  geo.Bounds
	proj    geo.Projection
	lang    string

	pixel    pixelCell
	render   registry
	disposed bool
}

// New creates a viewport on container.
func New(container Surface, opts ...Option) (*Viewport, error) {
	if container == nil {
		return nil, ErrNoContainer
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	v := &Viewport{
		container: container,
		center:    o.center,
		minZoom:   o.minZoom,
		maxZoom:   o.maxZoom,
		bounds:    o.bounds,
		proj:      o.proj,
		lang:      o.lang,
	}
	switch {
	case o.zoom != nil && !math.IsNaN(*o.zoom):
		v.zoom = *o.zoom
	case !math.IsInf(o.minZoom, 0):
		v.zoom = o.minZoom
	}
	v.zoom = v.clampZoom(v.zoom)
	return v, nil
}

func (v *Viewport) Center() geo.LatLng         { return v.center }
func (v *Viewport) Zoom() float64              { return v.zoom }
func (v *Viewport) MinZoom() float64           { return v.minZoom }
func (v *Viewport) MaxZoom() float64           { return v.maxZoom }
func (v *Viewport) Bounds() geo.Bounds         { return v.bounds }
func (v *Viewport) Projection() geo.Projection { return v.proj }
func (v *Viewport) Lang() string               { return v.lang }

// Box returns the current position and size of the container.
func (v *Viewport) Box() Box {
	return v.container.Box()
}

// SetZoom clamps z to the zoom limits and applies it. NaN is ignored.
func (v *Viewport) SetZoom(z float64) {
	if math.IsNaN(z) {
		return
	}
	v.zoom = v.clampZoom(z)
	v.pixel.invalidate()
	v.notify()
}

// SetCenter stores ll as is. It does not enforce bounds; callers check
// CanMoveTo first.
func (v *Viewport) SetCenter(ll geo.LatLng) {
	v.center = ll
	v.pixel.invalidate()
	v.notify()
}

func (v *Viewport) SetBounds(b geo.Bounds) {
	v.bounds = b
	v.notify()
}

// SetMinZoom updates the lower zoom limit, raising the zoom if needed.
func (v *Viewport) SetMinZoom(z float64) {
	if math.IsNaN(z) {
		return
	}
	v.minZoom = z
	v.repairZoom()
}

// SetMaxZoom updates the upper zoom limit, lowering the zoom if needed.
func (v *Viewport) SetMaxZoom(z float64) {
	if math.IsNaN(z) {
		return
	}
	v.maxZoom = z
	v.repairZoom()
}

func (v *Viewport) SetProjection(p geo.Projection) {
	v.proj = p
	v.pixel.invalidate()
	v.notify()
}

func (v *Viewport) SetLang(lang string) {
	v.lang = lang
	v.notify()
}

func (v *Viewport) repairZoom() {
	if z := v.clampZoom(v.zoom); z != v.zoom {
		v.SetZoom(z)
		return
	}
	v.notify()
}

func (v *Viewport) clampZoom(z float64) float64 {
	return math.Max(v.minZoom, math.Min(z, v.maxZoom))
}

// CenterPixel returns the center on the pixel plane at the current zoom.
func (v *Viewport) CenterPixel() geo.Point {
	return v.pixel.get(func() geo.Point {
		return geo.ToPixel(v.center, v.zoom, v.proj)
	})
}

// ToPixel projects ll at the current zoom and projection.
func (v *Viewport) ToPixel(ll geo.LatLng) geo.Point {
	return geo.ToPixel(ll, v.zoom, v.proj)
}

// ToGeo inverts ToPixel.
func (v *Viewport) ToGeo(p geo.Point) geo.LatLng {
	return geo.ToGeo(p, v.zoom, v.proj)
}

// ScreenToGeo returns the position under p, given relative to the top-left
// corner of the surface.
func (v *Viewport) ScreenToGeo(p geo.Point) geo.LatLng {
	return v.ToGeo(v.CenterPixel().Add(p.Sub(v.Box().Half())))
}

// GeoToScreen returns where ll is drawn, relative to the top-left corner of
// the surface.
func (v *Viewport) GeoToScreen(ll geo.LatLng) geo.Point {
	return v.ToPixel(ll).Sub(v.CenterPixel()).Add(v.Box().Half())
}

// InBounds reports whether ll is inside the navigable bounds.
func (v *Viewport) InBounds(ll geo.LatLng) bool {
	return v.bounds.Contains(ll)
}

// CanMoveTo reports whether ll can become the center: it must be in bounds,
// and so must both corners of the surface around it. A surface without
// measured size never allows a move.
func (v *Viewport) CanMoveTo(ll geo.LatLng) bool {
	box := v.Box()
	if box.Width == 0 || box.Height == 0 {
		return false
	}
	if !v.InBounds(ll) {
		return false
	}
	c := v.ToPixel(ll)
	half := box.Half()
	return v.InBounds(v.ToGeo(c.Sub(half))) && v.InBounds(v.ToGeo(c.Add(half)))
}

// ZoomAt changes the zoom keeping the geographic point at offset (relative
// to the surface center) under the same screen position. It reports whether
// the zoom changed. The center only moves if CanMoveTo allows it.
func (v *Viewport) ZoomAt(zoom float64, offset geo.Point) bool {
	old := v.zoom
	anchor := v.ToGeo(v.CenterPixel().Add(offset))

	v.SetZoom(zoom)
	if v.zoom == old {
		return false
	}

	center := v.ToGeo(v.ToPixel(anchor).Sub(offset))
	if v.CanMoveTo(center) {
		v.SetCenter(center)
	}
	return true
}

// FitBounds sets the zoom, rounded down, at which b spans no more than the
// surface on either axis. An axis with an unset side is left out, which keeps
// the current zoom as the upper limit. The center is not moved.
func (v *Viewport) FitBounds(b geo.Bounds) {
	box := v.Box()
	if box.Empty() {
		return
	}
	var dzx, dzy float64
	if b.MinLng != nil && b.MaxLng != nil {
		lat := v.center.Lat
		dx := math.Abs(v.ToPixel(geo.LatLng{Lat: lat, Lng: *b.MaxLng}).X - v.ToPixel(geo.LatLng{Lat: lat, Lng: *b.MinLng}).X)
		if dx != 0 {
			dzx = math.Log2(box.Width / dx)
		}
	}
	if b.MinLat != nil && b.MaxLat != nil {
		lng := v.center.Lng
		dy := math.Abs(v.ToPixel(geo.LatLng{Lat: *b.MinLat, Lng: lng}).Y - v.ToPixel(geo.LatLng{Lat: *b.MaxLat, Lng: lng}).Y)
		if dy != 0 {
			dzy = math.Log2(box.Height / dy)
		}
	}
	if next := math.Floor(v.zoom + math.Min(dzx, dzy)); next != v.zoom {
		v.SetZoom(next)
	}
}

// Scale returns the ground distance in meters across the middle of the
// surface, or 0 when the surface has no size.
func (v *Viewport) Scale() float64 {
	box := v.Box()
	if box.Empty() {
		return 0
	}
	y := box.Height / 2
	return geo.Distance(v.ScreenToGeo(geo.Pt(0, y)), v.ScreenToGeo(geo.Pt(box.Width, y)))
}

// OnRender registers fn to run synchronously after every mutation, after
// the callbacks registered before it. The returned func unregisters it and
// may be called from inside fn.
func (v *Viewport) OnRender(fn func()) (remove func()) {
	if v.disposed {
		return func() {}
	}
	return v.render.add(fn)
}

// OnRenderNow is OnRender with one immediate call of fn at registration.
func (v *Viewport) OnRenderNow(fn func()) (remove func()) {
	if v.disposed {
		return func() {}
	}
	remove = v.render.add(fn)
	fn()
	return remove
}

// Render notifies the render callbacks without changing any state. Hosts
// call it when the surface was resized.
func (v *Viewport) Render() {
	v.notify()
}

// Dispose drops every render callback. Further mutations notify nobody.
func (v *Viewport) Dispose() {
	v.disposed = true
	v.render.clear()
}

func (v *Viewport) notify() {
	if v.disposed {
		return
	}
	v.render.notify()
}

type pixelCell struct {
	p     geo.Point
	valid bool
}

func (c *pixelCell) get(compute func() geo.Point) geo.Point {
	if !c.valid {
		c.p = compute()
		c.valid = true
	}
	return c.p
}

func (c *pixelCell) invalidate() {
	c.valid = false
}
