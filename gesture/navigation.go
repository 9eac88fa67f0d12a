package gesture

import (
	"time"

	"github.com/olablt/gio-viewport/clock"
	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/logging"
)

// Handlers receive the lifecycle of a navigation session.
type Handlers struct {
	OnStart func()
	// OnMove receives the displacement of the viewport center in pixels.
	// Returning false rejects it and the session keeps measuring from the
	// last accepted position.
	OnMove func(dx, dy float64) bool
	OnEnd  func()
}

// Navigation is a drag and wheel session controller bound to one Source.
type Navigation struct {
	sched clock.Scheduler
	h     Handlers
	opts  options

	remove   func()
	disposed bool

	active  bool
	wheel   bool
	pointer int
	start   geo.Point
	startAt time.Time
	ref     geo.Point // last accepted pointer position
	cur     geo.Point // last reported pointer position
	moved   time.Time // last time OnMove was called
	flush   clock.Timer
	quiet   clock.Timer
	down    map[int]bool
}

// Bind starts listening to src. Dispose undoes it.
func Bind(src Source, sched clock.Scheduler, h Handlers, opts ...Option) *Navigation {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	n := &Navigation{
		sched: sched,
		h:     h,
		opts:  o,
		down:  make(map[int]bool),
	}
	n.remove = src.Listen(n.handle)
	return n
}

// Active reports whether a session is in progress.
func (n *Navigation) Active() bool {
	return n.active
}

// Dispose stops listening and drops pending timers. It can be called more
// than once.
func (n *Navigation) Dispose() {
	if n.disposed {
		return
	}
	n.disposed = true
	n.remove()
	stop(&n.flush)
	stop(&n.quiet)
	n.active = false
}

func (n *Navigation) handle(ev Event) {
	switch ev := ev.(type) {
	case PointerEvent:
		n.pointerEvent(ev)
	case WheelEvent:
		n.wheelEvent(ev)
	}
}

func (n *Navigation) pointerEvent(ev PointerEvent) {
	switch ev.Kind {
	case Down:
		n.down[ev.ID] = true
		if len(n.down) > 1 {
			// A second finger turns the gesture into a pinch.
			if n.active && !n.wheel {
				n.end()
			}
			return
		}
		if n.opts.ignored(ev.Target) {
			return
		}
		if n.active {
			n.end()
		}
		n.begin(false, ev.Position)
		n.pointer = ev.ID
	case Move:
		if !n.active || n.wheel || ev.ID != n.pointer {
			return
		}
		n.cur = ev.Position
		n.schedule()
	case Up, Cancel:
		delete(n.down, ev.ID)
		if n.active && !n.wheel && ev.ID == n.pointer {
			n.end()
		}
	}
}

func (n *Navigation) wheelEvent(ev WheelEvent) {
	if n.opts.ignored(ev.Target) || (n.active && !n.wheel) {
		return
	}
	if !n.active {
		n.begin(true, ev.Position)
	}
	d := ev.Delta
	if ev.Swap {
		d = geo.Pt(d.Y, d.X)
	}
	n.moved = n.sched.Now()
	if n.h.OnMove != nil {
		n.h.OnMove(d.X, d.Y)
	}

	stop(&n.quiet)
	n.quiet = n.sched.AfterFunc(n.opts.quiet, func() {
		n.quiet = nil
		n.end()
	})
}

func (n *Navigation) begin(wheel bool, at geo.Point) {
	n.active = true
	n.wheel = wheel
	n.start, n.ref, n.cur = at, at, at
	n.startAt = n.sched.Now()
	if n.h.OnStart != nil {
		n.h.OnStart()
	}
}

func (n *Navigation) end() {
	if !n.active {
		return
	}
	stop(&n.quiet)
	if stop(&n.flush) {
		n.apply()
	}
	n.active = false
	logging.Logger().Debug("navigation session ended",
		"wheel", n.wheel,
		"duration", n.sched.Now().Sub(n.startAt),
		"dx", n.cur.X-n.start.X,
		"dy", n.cur.Y-n.start.Y)
	n.wheel = false
	if n.h.OnEnd != nil {
		n.h.OnEnd()
	}
}

// schedule applies the pending move now, or once the throttle interval since
// the previous move has passed. Moves in between accumulate in cur.
func (n *Navigation) schedule() {
	if n.flush != nil {
		return
	}
	wait := n.opts.throttle - n.sched.Now().Sub(n.moved)
	if wait <= 0 {
		n.apply()
		return
	}
	n.flush = n.sched.AfterFunc(wait, func() {
		n.flush = nil
		n.apply()
	})
}

func (n *Navigation) apply() {
	// Dragging the map right moves the center left.
	d := n.ref.Sub(n.cur)
	if d == (geo.Point{}) {
		return
	}
	n.moved = n.sched.Now()
	if n.h.OnMove == nil || n.h.OnMove(d.X, d.Y) {
		n.ref = n.cur
	}
}

// stop cancels *t if set and reports whether it was still pending.
func stop(t *clock.Timer) bool {
	if *t == nil {
		return false
	}
	pending := (*t).Stop()
	*t = nil
	return pending
}
