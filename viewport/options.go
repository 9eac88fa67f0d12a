package viewport

import (
	"math"

	"github.com/olablt/gio-viewport/geo"
)

// Option configures a Viewport in New.
type Option func(*options)

type options struct {
	center  geo.LatLng
	zoom    *float64
	minZoom float64
	maxZoom float64
	bounds  geo.Bounds
	proj    geo.Projection
	lang    string
}

func defaultOptions() options {
	return options{
		minZoom: math.Inf(-1),
		maxZoom: math.Inf(1),
		proj:    geo.Spherical,
	}
}

func WithCenter(ll geo.LatLng) Option {
	return func(o *options) { o.center = ll }
}

// WithZoom sets the initial zoom. Without it the zoom starts at the minimum
// zoom, or 0 when there is none.
func WithZoom(z float64) Option {
	return func(o *options) { o.zoom = &z }
}

func WithMinZoom(z float64) Option {
	return func(o *options) { o.minZoom = z }
}

func WithMaxZoom(z float64) Option {
	return func(o *options) { o.maxZoom = z }
}

func WithBounds(b geo.Bounds) Option {
	return func(o *options) { o.bounds = b }
}

func WithProjection(p geo.Projection) Option {
	return func(o *options) { o.proj = p }
}

// WithLang sets the language passed to tile sources.
func WithLang(lang string) Option {
	return func(o *options) { o.lang = lang }
}

// WithState applies a whole saved option set.
func WithState(s State) Option {
	return func(o *options) {
		o.center = s.Center
		z := s.Zoom
		o.zoom = &z
		o.minZoom = math.Inf(-1)
		if s.MinZoom != nil {
			o.minZoom = *s.MinZoom
		}
		o.maxZoom = math.Inf(1)
		if s.MaxZoom != nil {
			o.maxZoom = *s.MaxZoom
		}
		o.bounds = s.Bounds
		o.proj = s.Projection
		o.lang = s.Lang
	}
}
