// Package mapview is a Gio widget showing a viewport and its tile layers.
//
// The widget is the viewport's surface: it reports its laid-out size as the
// viewport box, turns Gio pointer input into gesture events and runs the
// clock loop once per frame, so every viewport callback runs on the UI
// goroutine.
package mapview

import (
	"image"
	"image/color"
	"math"
	"strings"

	"gioui.org/f32"
	"gioui.org/font/gofont"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/olablt/gio-viewport/clock"
	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/gesture"
	"github.com/olablt/gio-viewport/tiles"
	"github.com/olablt/gio-viewport/viewport"
)

var (
	background        = color.NRGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	attributionShade  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xb0}
	scrollRange       = pointer.ScrollRange{Min: -1 << 20, Max: 1 << 20}
	defaultZoomStep   = 0.5
	attributionInsets = layout.UniformInset(unit.Dp(3))
)

type layerEntry struct {
	layer   *tiles.Layer
	opacity float32
}

type MapView struct {
	// ZoomStep is the zoom change of one ctrl+wheel tick.
	ZoomStep float64

	loop   *clock.Loop
	vp     *viewport.Viewport
	layers []layerEntry
	events gesture.Dispatcher
	down   map[pointer.ID]bool
	ops    *opCache
	theme  *material.Theme
	size   image.Point
}

// New returns a widget whose deferred work runs on loop.
func New(loop *clock.Loop) *MapView {
	th := material.NewTheme()
	th.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	return &MapView{
		ZoomStep: defaultZoomStep,
		loop:     loop,
		down:     make(map[pointer.ID]bool),
		ops:      newOpCache(0),
		theme:    th,
	}
}

// Box implements viewport.Surface.
func (mv *MapView) Box() viewport.Box {
	return viewport.Box{Width: float64(mv.size.X), Height: float64(mv.size.Y)}
}

// Source delivers the widget's input to gesture handlers.
func (mv *MapView) Source() gesture.Source {
	return &mv.events
}

func (mv *MapView) SetViewport(vp *viewport.Viewport) {
	mv.vp = vp
}

// AddLayer draws l, above the layers added before it.
func (mv *MapView) AddLayer(l *tiles.Layer, opacity float32) {
	mv.layers = append(mv.layers, layerEntry{layer: l, opacity: opacity})
}

func (mv *MapView) Layout(gtx layout.Context) layout.Dimensions {
	if gtx.Constraints.Max != mv.size {
		mv.size = gtx.Constraints.Max
		if mv.vp != nil {
			mv.vp.Render()
		}
	}

	mv.processEvents(gtx)
	mv.loop.Run()
	if at, ok := mv.loop.Next(); ok {
		gtx.Execute(op.InvalidateCmd{At: at})
	}

	defer clip.Rect{Max: mv.size}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, mv)
	paint.Fill(gtx.Ops, background)

	for _, e := range mv.layers {
		mv.drawLayer(gtx, e)
	}
	mv.drawAttribution(gtx)

	return layout.Dimensions{Size: mv.size}
}

func (mv *MapView) processEvents(gtx layout.Context) {
	for {
		ev, ok := gtx.Event(
			pointer.Filter{
				Target:  mv,
				Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel | pointer.Scroll,
				ScrollX: scrollRange,
				ScrollY: scrollRange,
			},
			key.Filter{Name: "+"},
			key.Filter{Name: "="},
			key.Filter{Name: "-"},
		)
		if !ok {
			return
		}
		switch e := ev.(type) {
		case pointer.Event:
			mv.pointerEvent(e)
		case key.Event:
			if e.State == key.Press && mv.vp != nil {
				if e.Name == "-" {
					mv.vp.SetZoom(mv.vp.Zoom() - 1)
				} else {
					mv.vp.SetZoom(mv.vp.Zoom() + 1)
				}
			}
		}
	}
}

func (mv *MapView) pointerEvent(e pointer.Event) {
	switch e.Kind {
	case pointer.Scroll:
		if e.Modifiers.Contain(key.ModCtrl) {
			mv.zoomAt(e)
			return
		}
		mv.events.Dispatch(toWheel(e, e.Modifiers.Contain(key.ModShift)))
		return
	case pointer.Press:
		mv.down[e.PointerID] = true
	case pointer.Release:
		delete(mv.down, e.PointerID)
	case pointer.Cancel:
		// Gio cancels every pointer at once.
		for id := range mv.down {
			e.PointerID = id
			ev, _ := toGesture(e)
			mv.events.Dispatch(ev)
		}
		clear(mv.down)
		return
	}
	if ev, ok := toGesture(e); ok {
		mv.events.Dispatch(ev)
	}
}

func (mv *MapView) zoomAt(e pointer.Event) {
	if mv.vp == nil || e.Scroll.Y == 0 {
		return
	}
	step := math.Copysign(mv.ZoomStep, float64(e.Scroll.Y))
	half := mv.Box().Half()
	offset := geo.Pt(float64(e.Position.X), float64(e.Position.Y)).Sub(half)
	mv.vp.ZoomAt(mv.vp.Zoom()-step, offset)
}

func (mv *MapView) drawLayer(gtx layout.Context, e layerEntry) {
	if e.layer.Hidden() || e.opacity <= 0 {
		return
	}
	if e.opacity < 1 {
		defer paint.PushOpacity(gtx.Ops, e.opacity).Pop()
	}
	ts := float32(e.layer.TileSize())
	for _, r := range e.layer.Tiles() {
		if r.Image == nil {
			continue
		}
		w := r.Image.Bounds().Dx()
		if w == 0 {
			continue
		}
		s := ts / float32(w)
		tr := f32.Affine2D{}.
			Scale(f32.Point{}, f32.Pt(s, s)).
			Offset(f32.Pt(float32(r.Pos.X), float32(r.Pos.Y)))
		stack := op.Affine(tr).Push(gtx.Ops)
		mv.ops.get(r.Image).Add(gtx.Ops)
		paint.PaintOp{}.Add(gtx.Ops)
		stack.Pop()
	}
}

func (mv *MapView) drawAttribution(gtx layout.Context) {
	var parts []string
	for _, e := range mv.layers {
		if a := e.layer.Attribution(); a != "" {
			parts = append(parts, a)
		}
	}
	if len(parts) == 0 {
		return
	}
	label := material.Caption(mv.theme, strings.Join(parts, " | "))
	layout.SE.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Background{}.Layout(gtx,
			func(gtx layout.Context) layout.Dimensions {
				defer clip.Rect{Max: gtx.Constraints.Min}.Push(gtx.Ops).Pop()
				paint.Fill(gtx.Ops, attributionShade)
				return layout.Dimensions{Size: gtx.Constraints.Min}
			},
			func(gtx layout.Context) layout.Dimensions {
				return attributionInsets.Layout(gtx, label.Layout)
			},
		)
	})
}
