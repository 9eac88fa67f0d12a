// Package gesture turns raw pointer, touch and wheel input into viewport
// movement: drag and wheel panning through Navigation, two-finger zoom
// through Pinch. Click reports short presses with their map position.
package gesture

import (
	"slices"

	"github.com/olablt/gio-viewport/geo"
)

// Kind is the phase of a pointer event.
type Kind uint8

const (
	Down Kind = iota
	Move
	Up
	Cancel
)

func (k Kind) String() string {
	switch k {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	case Cancel:
		return "cancel"
	}
	return "unknown"
}

// Device is the kind of pointing device.
type Device uint8

const (
	Mouse Device = iota
	Touch
	Pen
)

// Event is a PointerEvent or a WheelEvent.
type Event interface {
	isEvent()
}

// PointerEvent is a unified mouse, touch or pen event.
type PointerEvent struct {
	Kind   Kind
	ID     int
	Device Device
	// Position is in host pixel space.
	Position geo.Point
	// Target is the host element under the pointer, or nil.
	Target Element
}

// WheelEvent is a scroll tick.
type WheelEvent struct {
	Delta geo.Point
	// Swap exchanges the axes, for horizontal scrolling with a vertical wheel.
	Swap     bool
	Position geo.Point
	Target   Element
}

func (PointerEvent) isEvent() {}
func (WheelEvent) isEvent()   {}

// Source is a stream of input events from the host surface.
type Source interface {
	Listen(fn func(Event)) (remove func())
}

// Element is a node of the host surface, used to ignore input on controls
// layered over the map.
type Element interface {
	Parent() Element
	Matches(selector string) bool
}

// IgnoreFunc reports whether input on an element should be ignored.
type IgnoreFunc func(Element) bool

// IgnoreSelector ignores elements matching selector or having an ancestor
// that does.
func IgnoreSelector(selector string) IgnoreFunc {
	return func(e Element) bool {
		for ; e != nil; e = e.Parent() {
			if e.Matches(selector) {
				return true
			}
		}
		return false
	}
}

// Dispatcher is a Source fed by the host through Dispatch.
type Dispatcher struct {
	listeners []*listener
}

type listener struct {
	fn      func(Event)
	removed bool
}

func (d *Dispatcher) Listen(fn func(Event)) func() {
	l := &listener{fn: fn}
	d.listeners = append(d.listeners, l)
	return func() {
		if l.removed {
			return
		}
		l.removed = true
		if i := slices.Index(d.listeners, l); i >= 0 {
			d.listeners = slices.Delete(d.listeners, i, i+1)
		}
	}
}

// Dispatch delivers ev to every listener in registration order.
func (d *Dispatcher) Dispatch(ev Event) {
	for _, l := range slices.Clone(d.listeners) {
		if !l.removed {
			l.fn(ev)
		}
	}
}
