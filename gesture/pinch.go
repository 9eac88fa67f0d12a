package gesture

import (
	"math"

	"github.com/olablt/gio-viewport/clock"
	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/viewport"
)

// Pinch zooms a viewport with two touch points. Zoom changes by whole steps
// on animation frames; the geographic point under the midpoint of the two
// fingers stays put.
type Pinch struct {
	vp    *viewport.Viewport
	sched clock.Scheduler
	pace  float64

	remove   func()
	disposed bool

	touches map[int]geo.Point
	base    float64 // finger distance when the pinch started
	applied float64 // zoom steps applied since the pinch started
	mid     geo.Point
	frame   clock.Timer
}

// BindPinch starts tracking touch events from src.
func BindPinch(src Source, sched clock.Scheduler, vp *viewport.Viewport, opts ...Option) *Pinch {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pinch{
		vp:      vp,
		sched:   sched,
		pace:    o.pace,
		touches: make(map[int]geo.Point),
	}
	p.remove = src.Listen(p.handle)
	return p
}

// Dispose stops tracking and cancels a pending frame. Idempotent.
func (p *Pinch) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	p.remove()
	stop(&p.frame)
}

func (p *Pinch) handle(ev Event) {
	pe, ok := ev.(PointerEvent)
	if !ok || pe.Device != Touch {
		return
	}
	switch pe.Kind {
	case Down:
		p.touches[pe.ID] = pe.Position
		if len(p.touches) == 2 {
			p.base = p.distance()
			p.applied = 0
			p.mid = p.midpoint()
			stop(&p.frame)
		}
	case Move:
		if _, ok := p.touches[pe.ID]; !ok {
			return
		}
		p.touches[pe.ID] = pe.Position
		if len(p.touches) == 2 && p.base > 0 {
			p.mid = p.midpoint()
			p.request()
		}
	case Up, Cancel:
		delete(p.touches, pe.ID)
	}
}

// delta is the zoom change the fingers ask for but that is not applied yet.
func (p *Pinch) delta() float64 {
	d := p.distance()
	if p.base <= 0 || d <= 0 {
		return 0
	}
	return math.Log2(d/p.base)/math.Log2(p.pace) - p.applied
}

func (p *Pinch) request() {
	if p.frame != nil {
		return
	}
	p.frame = p.sched.RequestFrame(func() {
		p.frame = nil
		p.step()
	})
}

func (p *Pinch) step() {
	if len(p.touches) != 2 {
		return
	}
	n := math.Trunc(p.delta())
	if n == 0 {
		return
	}
	p.applied += n
	box := p.vp.Box()
	offset := p.mid.Sub(geo.Pt(box.X, box.Y)).Sub(box.Half())
	p.vp.ZoomAt(p.vp.Zoom()+n, offset)
}

func (p *Pinch) distance() float64 {
	a, b, ok := p.pair()
	if !ok {
		return 0
	}
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (p *Pinch) midpoint() geo.Point {
	a, b, _ := p.pair()
	return a.Add(b).Mul(0.5)
}

func (p *Pinch) pair() (a, b geo.Point, ok bool) {
	if len(p.touches) != 2 {
		return a, b, false
	}
	i := 0
	for _, pt := range p.touches {
		if i == 0 {
			a = pt
		} else {
			b = pt
		}
		i++
	}
	return a, b, true
}
