package tiles

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olablt/gio-viewport/clock"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newLoop() (*clock.Loop, chan struct{}) {
	wake := make(chan struct{}, 1)
	return clock.NewLoop(func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	}), wake
}

// runUntil drives loop the way a UI would until cond holds.
func runUntil(t *testing.T, loop *clock.Loop, wake chan struct{}, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-wake:
			loop.Run()
		case <-deadline:
			t.Fatal("timed out waiting for the loop")
		}
	}
}

func TestHTTPLoaderLoadsAndCaches(t *testing.T) {
	data := encodePNG(t)
	var hits atomic.Int32
	var ua, ref atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		ua.Store(r.Header.Get("User-Agent"))
		ref.Store(r.Header.Get("Referer"))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	loop, wake := newLoop()
	h := NewHTTPLoader(loop, WithWorkers(2), WithReferer("https://example.org/"), WithRateLimit(100, 10))
	defer h.Close()

	var got image.Image
	var gotErr error
	calls := 0
	h.Load(srv.URL+"/1/0/0.png", func(img image.Image, err error) {
		got, gotErr = img, err
		calls++
	})
	runUntil(t, loop, wake, func() bool { return calls == 1 })
	require.NoError(t, gotErr)
	assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())
	assert.Equal(t, DefaultUserAgent, ua.Load())
	assert.Equal(t, "https://example.org/", ref.Load())

	h.Load(srv.URL+"/1/0/0.png", func(img image.Image, err error) {
		calls++
	})
	runUntil(t, loop, wake, func() bool { return calls == 2 })
	assert.EqualValues(t, 1, hits.Load())
}

func TestHTTPLoaderCancelSuppressesCallback(t *testing.T) {
	data := encodePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	loop, wake := newLoop()
	h := NewHTTPLoader(loop)
	defer h.Close()

	// Warm the cache, then cancel a cached load before the loop runs.
	loaded := false
	h.Load(srv.URL+"/a.png", func(image.Image, error) { loaded = true })
	runUntil(t, loop, wake, func() bool { return loaded })

	called := false
	cancel := h.Load(srv.URL+"/a.png", func(image.Image, error) { called = true })
	cancel()
	loop.Run()
	assert.False(t, called)
}

func TestHTTPLoaderFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing.png":
			http.NotFound(w, r)
		default:
			_, _ = w.Write([]byte("not an image"))
		}
	}))
	defer srv.Close()

	loop, _ := newLoop()
	h := NewHTTPLoader(loop)
	defer h.Close()

	_, err := h.Fetch(context.Background(), srv.URL+"/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = h.Fetch(context.Background(), srv.URL+"/garbage.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Fetch(ctx, srv.URL+"/slow.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPLoaderDeliversErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	loop, wake := newLoop()
	h := NewHTTPLoader(loop)
	defer h.Close()

	var gotErr error
	done := false
	h.Load(srv.URL+"/0/0/0.png", func(_ image.Image, err error) {
		gotErr, done = err, true
	})
	runUntil(t, loop, wake, func() bool { return done })
	assert.Error(t, gotErr)
}

func TestImageCache(t *testing.T) {
	c := NewImageCache(2)
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	c.Add("a", img)
	c.Add("b", img)
	c.Add("c", img)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Zero(t, c.Len())
}
