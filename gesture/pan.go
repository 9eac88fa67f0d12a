package gesture

import (
	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/viewport"
)

// Pan returns handlers that move vp by each navigation delta.
func Pan(vp *viewport.Viewport) Handlers {
	return Handlers{
		OnMove: func(dx, dy float64) bool {
			return PanBy(vp, geo.Pt(dx, dy))
		},
	}
}

// PanBy moves the center of vp by d pixels if the result passes CanMoveTo.
// Otherwise nothing changes and it returns false.
func PanBy(vp *viewport.Viewport, d geo.Point) bool {
	c := vp.ToGeo(vp.CenterPixel().Add(d))
	if !vp.CanMoveTo(c) {
		return false
	}
	vp.SetCenter(c)
	return true
}
