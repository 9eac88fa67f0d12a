package viewport

import (
	"math"

	"github.com/olablt/gio-viewport/geo"
)

// State is the full option set of a viewport as a plain value. Infinite zoom
// limits are left nil.
type State struct {
	Center     geo.LatLng     `json:"center"`
	Zoom       float64        `json:"zoom"`
	MinZoom    *float64       `json:"minZoom,omitempty"`
	MaxZoom    *float64       `json:"maxZoom,omitempty"`
	Bounds     geo.Bounds     `json:"bounds"`
	Projection geo.Projection `json:"projection"`
	Lang       string         `json:"lang,omitempty"`
}

// State snapshots the viewport options.
func (v *Viewport) State() State {
	s := State{
		Center:     v.center,
		Zoom:       v.zoom,
		Bounds:     v.bounds,
		Projection: v.proj,
		Lang:       v.lang,
	}
	if !math.IsInf(v.minZoom, 0) {
		s.MinZoom = geo.Deg(v.minZoom)
	}
	if !math.IsInf(v.maxZoom, 0) {
		s.MaxZoom = geo.Deg(v.maxZoom)
	}
	return s
}

// Restore applies s through the regular setters, limits first so the zoom
// is clamped against the restored limits.
func (v *Viewport) Restore(s State) {
	minZoom, maxZoom := math.Inf(-1), math.Inf(1)
	if s.MinZoom != nil {
		minZoom = *s.MinZoom
	}
	if s.MaxZoom != nil {
		maxZoom = *s.MaxZoom
	}
	v.SetMinZoom(minZoom)
	v.SetMaxZoom(maxZoom)
	v.SetBounds(s.Bounds)
	v.SetProjection(s.Projection)
	v.SetLang(s.Lang)
	v.SetZoom(s.Zoom)
	v.SetCenter(s.Center)
}
