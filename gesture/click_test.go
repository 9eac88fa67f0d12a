package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olablt/gio-viewport/clock"
	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/viewport"
)

func setupClick(t *testing.T, opts ...Option) (*Dispatcher, *clock.Mock, *viewport.Viewport, *[]ClickEvent) {
	t.Helper()
	vp, err := viewport.New(surface{X: 10, Y: 20, Width: 100, Height: 100}, viewport.WithZoom(3))
	require.NoError(t, err)
	d := &Dispatcher{}
	m := clock.NewMock(epoch)
	var got []ClickEvent
	c := BindClick(d, m, vp, func(ev ClickEvent) { got = append(got, ev) }, opts...)
	t.Cleanup(c.Dispose)
	return d, m, vp, &got
}

func TestClickReportsSurfaceAndGeoPosition(t *testing.T) {
	d, m, vp, got := setupClick(t)

	d.Dispatch(down(60, 70))
	m.Advance(100 * time.Millisecond)
	d.Dispatch(up())

	require.Len(t, *got, 1)
	ev := (*got)[0]
	assert.Equal(t, geo.Pt(50, 50), ev.Position)
	assert.InDelta(t, 0, ev.LatLng.Lat, 1e-9)
	assert.InDelta(t, 0, ev.LatLng.Lng, 1e-9)
	assert.Equal(t, Up, ev.Release.Kind)

	d.Dispatch(down(110, 70))
	d.Dispatch(up())
	require.Len(t, *got, 2)
	assert.Equal(t, vp.ScreenToGeo(geo.Pt(100, 50)), (*got)[1].LatLng)
	assert.Greater(t, (*got)[1].LatLng.Lng, 0.0)
}

func TestClickSkipsLongPress(t *testing.T) {
	d, m, _, got := setupClick(t)

	d.Dispatch(down(60, 70))
	m.Advance(151 * time.Millisecond)
	d.Dispatch(up())
	assert.Empty(t, *got)

	d.Dispatch(up())
	assert.Empty(t, *got, "release without a press")
}

func TestClickTimeOption(t *testing.T) {
	d, m, _, got := setupClick(t, WithClickTime(time.Second))

	d.Dispatch(down(60, 70))
	m.Advance(500 * time.Millisecond)
	d.Dispatch(up())
	assert.Len(t, *got, 1)
}

func TestClickIgnoresReleaseOnIgnoredElement(t *testing.T) {
	d, _, _, got := setupClick(t, WithIgnore(IgnoreSelector("button")))
	button := &element{tag: "button"}

	d.Dispatch(down(60, 70))
	d.Dispatch(PointerEvent{Kind: Up, Target: &element{tag: "span", parent: button}})
	assert.Empty(t, *got)

	d.Dispatch(down(60, 70))
	d.Dispatch(PointerEvent{Kind: Cancel})
	d.Dispatch(up())
	assert.Empty(t, *got)
}

func TestClickDispose(t *testing.T) {
	d, _, _, got := setupClick(t)
	c := BindClick(d, clock.NewMock(epoch), nil, func(ClickEvent) { t.Fatal("disposed click fired") })
	c.Dispose()
	c.Dispose()

	d.Dispatch(down(60, 70))
	d.Dispatch(up())
	assert.Len(t, *got, 1)
}
