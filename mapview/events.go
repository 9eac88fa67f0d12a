package mapview

import (
	"gioui.org/io/pointer"

	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/gesture"
)

var pointerKinds = map[pointer.Kind]gesture.Kind{
	pointer.Press:   gesture.Down,
	pointer.Drag:    gesture.Move,
	pointer.Release: gesture.Up,
	pointer.Cancel:  gesture.Cancel,
}

// toGesture converts a Gio pointer event. Scroll and hover events have no
// counterpart.
func toGesture(e pointer.Event) (gesture.PointerEvent, bool) {
	kind, ok := pointerKinds[e.Kind]
	if !ok {
		return gesture.PointerEvent{}, false
	}
	device := gesture.Mouse
	if e.Source == pointer.Touch {
		device = gesture.Touch
	}
	return gesture.PointerEvent{
		Kind:     kind,
		ID:       int(e.PointerID),
		Device:   device,
		Position: geo.Pt(float64(e.Position.X), float64(e.Position.Y)),
	}, true
}

func toWheel(e pointer.Event, swap bool) gesture.WheelEvent {
	return gesture.WheelEvent{
		Delta:    geo.Pt(float64(e.Scroll.X), float64(e.Scroll.Y)),
		Swap:     swap,
		Position: geo.Pt(float64(e.Position.X), float64(e.Position.Y)),
	}
}
