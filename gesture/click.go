package gesture

import (
	"time"

	"github.com/olablt/gio-viewport/clock"
	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/viewport"
)

// ClickEvent is a short press on the map.
type ClickEvent struct {
	// Position is where the press started, relative to the top-left corner
	// of the surface.
	Position geo.Point
	LatLng   geo.LatLng
	// Release is the event that ended the press.
	Release PointerEvent
}

// Click reports presses released within the click time as clicks. Longer
// presses are drags and are not reported.
type Click struct {
	vp    *viewport.Viewport
	sched clock.Scheduler
	fn    func(ClickEvent)
	opts  options

	remove   func()
	disposed bool

	pressed bool
	at      time.Time
	pos     geo.Point
}

// BindClick calls fn for every click on src. Releases on ignored elements
// are dropped.
func BindClick(src Source, sched clock.Scheduler, vp *viewport.Viewport, fn func(ClickEvent), opts ...Option) *Click {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	c := &Click{vp: vp, sched: sched, fn: fn, opts: o}
	c.remove = src.Listen(c.handle)
	return c
}

// Dispose stops reporting clicks. Idempotent.
func (c *Click) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.remove()
}

func (c *Click) handle(ev Event) {
	pe, ok := ev.(PointerEvent)
	if !ok {
		return
	}
	switch pe.Kind {
	case Down:
		c.pressed = true
		c.at = c.sched.Now()
		c.pos = pe.Position
	case Up:
		if !c.pressed || c.opts.ignored(pe.Target) {
			return
		}
		c.pressed = false
		if c.sched.Now().Sub(c.at) > c.opts.click {
			return
		}
		box := c.vp.Box()
		p := c.pos.Sub(geo.Pt(box.X, box.Y))
		c.fn(ClickEvent{Position: p, LatLng: c.vp.ScreenToGeo(p), Release: pe})
	case Cancel:
		c.pressed = false
	}
}
