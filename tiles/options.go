package tiles

import (
	"image"
	"time"

	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/viewport"
)

const (
	DefaultRetries  = 2
	DefaultDebounce = 300 * time.Millisecond
)

type options struct {
	retries     int
	margin      geo.Point
	errorURL    URLFunc
	placeholder func(Tile) image.Image
	attribution viewport.Value[string]
	debounce    time.Duration
}

func defaultOptions() options {
	return options{
		retries:  DefaultRetries,
		debounce: DefaultDebounce,
	}
}

// Option configures a Layer.
type Option func(*options)

// WithRetries sets how many times a failed tile is requested again before
// falling back. Zero disables retries.
func WithRetries(n int) Option {
	return func(o *options) { o.retries = max(0, n) }
}

// WithMargin extends the covered area by x and y pixels on each side so
// tiles just outside the surface are loaded ahead of time.
func WithMargin(x, y float64) Option {
	return func(o *options) { o.margin = geo.Pt(x, y) }
}

// WithErrorURL loads the image from u once a tile has exhausted its retries.
func WithErrorURL(u URLFunc) Option {
	return func(o *options) { o.errorURL = u }
}

// WithPlaceholder draws a fallback image for tiles that failed for good. It
// is used when no error URL is set or the error image itself fails.
func WithPlaceholder(fn func(Tile) image.Image) Option {
	return func(o *options) { o.placeholder = fn }
}

// WithAttribution sets the attribution text shown for the layer.
func WithAttribution(v viewport.Value[string]) Option {
	return func(o *options) { o.attribution = v }
}

// WithDebounce sets the quiet period after a zoom change before tiles are
// recomputed. Zero refreshes on every zoom change.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = max(0, d) }
}
