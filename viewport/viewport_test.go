package viewport

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olablt/gio-viewport/geo"
)

type fixedSurface Box

func (s *fixedSurface) Box() Box { return Box(*s) }

func newViewport(t *testing.T, opts ...Option) *Viewport {
	t.Helper()
	v, err := New(&fixedSurface{Width: 200, Height: 100}, opts...)
	require.NoError(t, err)
	return v
}

func TestNewRequiresContainer(t *testing.T) {
	v, err := New(nil)
	assert.ErrorIs(t, err, ErrNoContainer)
	assert.Nil(t, v)
}

func TestDefaults(t *testing.T) {
	v := newViewport(t)
	assert.Equal(t, geo.LatLng{}, v.Center())
	assert.Equal(t, 0.0, v.Zoom())
	assert.True(t, math.IsInf(v.MinZoom(), -1))
	assert.True(t, math.IsInf(v.MaxZoom(), 1))
	assert.Equal(t, geo.Spherical, v.Projection())
	assert.Equal(t, "", v.Lang())
}

func TestInitialZoomDefaultsToMinZoom(t *testing.T) {
	v := newViewport(t, WithMinZoom(3))
	assert.Equal(t, 3.0, v.Zoom())

	v = newViewport(t, WithMinZoom(3), WithMaxZoom(5), WithZoom(9))
	assert.Equal(t, 5.0, v.Zoom())
}

func TestSetZoomClamps(t *testing.T) {
	v := newViewport(t, WithMinZoom(2), WithMaxZoom(18))
	for _, z := range []float64{-100, 0, 2, 7.5, 18, 19, math.Inf(1)} {
		v.SetZoom(z)
		assert.GreaterOrEqual(t, v.Zoom(), 2.0)
		assert.LessOrEqual(t, v.Zoom(), 18.0)
	}
	v.SetZoom(7.5)
	assert.Equal(t, 7.5, v.Zoom())
}

func TestSetZoomIgnoresNaN(t *testing.T) {
	v := newViewport(t, WithZoom(4))
	n := 0
	v.OnRender(func() { n++ })

	v.SetZoom(math.NaN())
	assert.Equal(t, 4.0, v.Zoom())
	assert.Zero(t, n)

	v.SetMinZoom(math.NaN())
	v.SetMaxZoom(math.NaN())
	assert.Equal(t, 4.0, v.Zoom())
	assert.False(t, v.ZoomAt(math.NaN(), geo.Pt(5, 5)))

	v = newViewport(t, WithZoom(math.NaN()))
	assert.Equal(t, 0.0, v.Zoom())
}

func TestLimitChangesRepairZoom(t *testing.T) {
	v := newViewport(t, WithZoom(10))

	v.SetMinZoom(12)
	assert.Equal(t, 12.0, v.Zoom())

	v.SetMaxZoom(8)
	assert.Equal(t, 8.0, v.Zoom(), "upper limit wins over a crossed lower limit")

	v.SetMinZoom(0)
	v.SetMaxZoom(20)
	assert.Equal(t, 8.0, v.Zoom())
}

func TestLimitChangeNotifiesOnce(t *testing.T) {
	v := newViewport(t, WithZoom(10))
	n := 0
	v.OnRender(func() { n++ })

	v.SetMinZoom(12)
	assert.Equal(t, 1, n)
	v.SetMinZoom(1)
	assert.Equal(t, 2, n)
}

func TestCenterPixelCache(t *testing.T) {
	v := newViewport(t, WithZoom(10))
	assert.Equal(t, geo.ToPixel(geo.LatLng{}, 10, geo.Spherical), v.CenterPixel())

	ll := geo.LatLng{Lat: 51.507222, Lng: -0.1275}
	v.SetCenter(ll)
	assert.Equal(t, geo.ToPixel(ll, 10, geo.Spherical), v.CenterPixel())

	v.SetZoom(11)
	assert.Equal(t, geo.ToPixel(ll, 11, geo.Spherical), v.CenterPixel())

	v.SetProjection(geo.Ellipsoidal)
	assert.Equal(t, geo.ToPixel(ll, 11, geo.Ellipsoidal), v.CenterPixel())
}

func TestSetCenterStoresVerbatim(t *testing.T) {
	v := newViewport(t, WithBounds(geo.Bounds{MaxLat: geo.Deg(10)}))
	v.SetCenter(geo.LatLng{Lat: 40})
	assert.Equal(t, 40.0, v.Center().Lat)
}

func TestInBoundsDefaults(t *testing.T) {
	v := newViewport(t)
	assert.True(t, v.InBounds(geo.LatLng{Lat: 85, Lng: 179.9}))
	assert.False(t, v.InBounds(geo.LatLng{Lat: 85.1}))
}

func boundedViewport(t *testing.T, box Box) *Viewport {
	t.Helper()
	s := fixedSurface(box)
	v, err := New(&s,
		WithZoom(10),
		WithCenter(geo.LatLng{Lat: 9, Lng: 9}),
		WithBounds(geo.Bounds{MinLat: geo.Deg(-10), MaxLat: geo.Deg(10), MinLng: geo.Deg(-10), MaxLng: geo.Deg(10)}),
	)
	require.NoError(t, err)
	return v
}

func TestCanMoveToRejectsCenterOutOfBounds(t *testing.T) {
	v := boundedViewport(t, Box{Width: 100, Height: 100})
	assert.True(t, v.CanMoveTo(geo.LatLng{Lat: 9, Lng: 9}))
	assert.False(t, v.CanMoveTo(geo.LatLng{Lat: 11, Lng: 9}))
}

func TestCanMoveToChecksCorners(t *testing.T) {
	v := boundedViewport(t, Box{Width: 400, Height: 400})
	// 200 px at zoom 10 is about a quarter degree: the center is legal but
	// the top-right corner would cross 10N.
	center := geo.LatLng{Lat: 9.9, Lng: 0}
	require.True(t, v.InBounds(center))
	assert.False(t, v.CanMoveTo(center))
	assert.True(t, v.CanMoveTo(geo.LatLng{Lat: 9.5, Lng: 0}))
}

func TestCanMoveToImpliesCornersInBounds(t *testing.T) {
	v := boundedViewport(t, Box{Width: 300, Height: 200})
	half := v.Box().Half()
	for lat := -10.0; lat <= 10; lat += 0.05 {
		for lng := -10.0; lng <= 10; lng += 0.5 {
			ll := geo.LatLng{Lat: lat, Lng: lng}
			if !v.CanMoveTo(ll) {
				continue
			}
			c := v.ToPixel(ll)
			require.True(t, v.InBounds(v.ToGeo(c.Sub(half))), "%v", ll)
			require.True(t, v.InBounds(v.ToGeo(c.Add(half))), "%v", ll)
		}
	}
}

func TestCanMoveToNeedsMeasuredSurface(t *testing.T) {
	v := boundedViewport(t, Box{Width: 0, Height: 100})
	assert.False(t, v.CanMoveTo(geo.LatLng{}))
}

func TestZoomAtKeepsAnchor(t *testing.T) {
	v := newViewport(t, WithZoom(10), WithCenter(geo.LatLng{Lat: 48.85, Lng: 2.35}))
	offset := geo.Pt(60, -30)
	anchor := v.ToGeo(v.CenterPixel().Add(offset))

	require.True(t, v.ZoomAt(11, offset))
	assert.Equal(t, 11.0, v.Zoom())

	moved := v.ToPixel(anchor).Sub(v.CenterPixel())
	assert.InDelta(t, offset.X, moved.X, 1)
	assert.InDelta(t, offset.Y, moved.Y, 1)
}

func TestZoomAtAtLimitIsNoop(t *testing.T) {
	v := newViewport(t, WithZoom(5), WithMaxZoom(5))
	center := v.Center()
	assert.False(t, v.ZoomAt(6, geo.Pt(10, 10)))
	assert.Equal(t, center, v.Center())
}

func TestFitBounds(t *testing.T) {
	v := newViewport(t)
	v.FitBounds(geo.Bounds{MinLat: geo.Deg(-10), MaxLat: geo.Deg(10), MinLng: geo.Deg(-45), MaxLng: geo.Deg(45)})
	// 90 degrees span 64px at zoom 0, so 200px fit one more level.
	assert.Equal(t, 1.0, v.Zoom())

	v.SetZoom(5)
	v.FitBounds(geo.Bounds{MinLat: geo.Deg(-10), MaxLat: geo.Deg(10), MinLng: geo.Deg(-90), MaxLng: geo.Deg(90)})
	assert.Equal(t, 0.0, v.Zoom())
	assert.Equal(t, geo.LatLng{}, v.Center())
}

func TestFitBoundsSingleAxisOnlyZoomsOut(t *testing.T) {
	v := newViewport(t, WithZoom(3), WithMinZoom(0))
	v.FitBounds(geo.Bounds{MinLng: geo.Deg(-1), MaxLng: geo.Deg(1)})
	assert.Equal(t, 3.0, v.Zoom())

	v.FitBounds(geo.Bounds{MinLng: geo.Deg(-180), MaxLng: geo.Deg(180)})
	assert.Equal(t, 0.0, v.Zoom())
}

func TestFitBoundsNeedsMeasuredSurface(t *testing.T) {
	v, err := New(&fixedSurface{}, WithZoom(7))
	require.NoError(t, err)
	v.FitBounds(geo.BoundsOf(geo.LatLng{Lat: 1, Lng: 1}, geo.LatLng{Lat: 2, Lng: 2}))
	assert.Equal(t, 7.0, v.Zoom())
}

func TestScreenGeoRoundTrip(t *testing.T) {
	v := newViewport(t, WithZoom(6), WithCenter(geo.LatLng{Lat: 40, Lng: -3}))
	assert.InDelta(t, 40, v.ScreenToGeo(geo.Pt(100, 50)).Lat, 1e-9)

	ll := geo.LatLng{Lat: 41, Lng: -2}
	back := v.ScreenToGeo(v.GeoToScreen(ll))
	assert.InDelta(t, ll.Lat, back.Lat, 1e-9)
	assert.InDelta(t, ll.Lng, back.Lng, 1e-9)
}

func TestScale(t *testing.T) {
	v := newViewport(t, WithZoom(10), WithCenter(geo.LatLng{Lat: 30, Lng: 10}))
	want := 200 * geo.MetersPerPixel(30, 10)
	assert.InDelta(t, want, v.Scale(), want*0.01)

	empty, err := New(&fixedSurface{})
	require.NoError(t, err)
	assert.Zero(t, empty.Scale())
}

func TestRenderCallbacksInRegistrationOrder(t *testing.T) {
	v := newViewport(t)
	var got []int
	for i := 0; i < 3; i++ {
		v.OnRender(func() { got = append(got, i) })
	}
	v.SetZoom(1)
	assert.Equal(t, []int{0, 1, 2}, got)
}

func TestRenderCallbackRemovesItself(t *testing.T) {
	v := newViewport(t)
	var got []string
	v.OnRender(func() { got = append(got, "a") })
	var removeB func()
	removeB = v.OnRender(func() {
		got = append(got, "b")
		removeB()
	})
	v.OnRender(func() { got = append(got, "c") })

	v.SetZoom(1)
	v.SetZoom(2)
	assert.Equal(t, []string{"a", "b", "c", "a", "c"}, got)

	removeB()
	assert.Equal(t, 2, v.render.len())
}

func TestRenderCallbackRemovingLaterOneSkipsIt(t *testing.T) {
	v := newViewport(t)
	var got []string
	var removeC func()
	v.OnRender(func() {
		got = append(got, "a")
		removeC()
	})
	removeC = v.OnRender(func() { got = append(got, "c") })

	v.SetZoom(1)
	assert.Equal(t, []string{"a"}, got)
}

func TestDisposeStopsNotifications(t *testing.T) {
	v := newViewport(t)
	n := 0
	remove := v.OnRender(func() { n++ })
	v.Dispose()
	v.SetZoom(3)
	remove()
	v.Dispose()
	assert.Zero(t, n)
	assert.Equal(t, 3.0, v.Zoom())
}

func TestOnRenderNowCallsAtRegistration(t *testing.T) {
	v := newViewport(t)
	n := 0
	remove := v.OnRenderNow(func() { n++ })
	assert.Equal(t, 1, n)

	v.SetZoom(2)
	assert.Equal(t, 2, n)

	remove()
	v.SetZoom(3)
	assert.Equal(t, 2, n)

	v.Dispose()
	v.OnRenderNow(func() { n++ })
	assert.Equal(t, 2, n)
}

func TestRenderNotifiesWithoutMutation(t *testing.T) {
	v := newViewport(t, WithZoom(4))
	n := 0
	v.OnRender(func() { n++ })
	v.Render()
	assert.Equal(t, 1, n)
	assert.Equal(t, 4.0, v.Zoom())
}

func TestStateRoundTrip(t *testing.T) {
	v := newViewport(t,
		WithCenter(geo.LatLng{Lat: 1, Lng: 2}),
		WithZoom(7),
		WithMinZoom(3),
		WithBounds(geo.Bounds{MaxLat: geo.Deg(60)}),
		WithProjection(geo.Ellipsoidal),
		WithLang("en_US"),
	)
	b, err := json.Marshal(v.State())
	require.NoError(t, err)
	assert.JSONEq(t, `{"center":{"lat":1,"lng":2},"zoom":7,"minZoom":3,"bounds":{"maxLat":60},"projection":"ellipsoidal","lang":"en_US"}`, string(b))

	var s State
	require.NoError(t, json.Unmarshal(b, &s))

	w := newViewport(t)
	w.Restore(s)
	assert.Equal(t, v.State(), w.State())

	x := newViewport(t, WithState(s))
	assert.Equal(t, v.State(), x.State())
}

func TestValueResolve(t *testing.T) {
	v := newViewport(t, WithLang("de"))
	lit := Literal("© OpenStreetMap")
	assert.False(t, lit.IsComputed())
	assert.Equal(t, "© OpenStreetMap", lit.Resolve(v))

	comp := Computed(func(v *Viewport) string { return "lang=" + v.Lang() })
	assert.True(t, comp.IsComputed())
	assert.Equal(t, "lang=de", comp.Resolve(v))

	var zero Value[string]
	assert.Equal(t, "", zero.Resolve(v))
}
