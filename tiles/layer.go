package tiles

import (
	"image"
	"math"

	"github.com/olablt/gio-viewport/clock"
	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/logging"
	"github.com/olablt/gio-viewport/viewport"
)

// Layer tracks the tiles covering a viewport. All methods must be called on
// the UI loop that runs the scheduler.
type Layer struct {
	vp     *viewport.Viewport
	sched  clock.Scheduler
	loader Loader
	url    URLFunc
	opts   options

	tiles    map[string]*Resource
	order    []*Resource
	tileSize float64

	// zoom the current tiles were computed for.
	zoom     float64
	computed bool

	hidden   bool
	pending  float64
	debounce clock.Timer

	cycles   int
	remove   func()
	disposed bool
}

// NewLayer creates a layer for vp and computes its first set of tiles.
func NewLayer(vp *viewport.Viewport, sched clock.Scheduler, loader Loader, url URLFunc, opts ...Option) *Layer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	l := &Layer{
		vp:     vp,
		sched:  sched,
		loader: loader,
		url:    url,
		opts:   o,
		tiles:  make(map[string]*Resource),
	}
	l.remove = vp.OnRenderNow(l.onRender)
	return l
}

// Tiles returns the tracked tiles, nearest to the center first. The slice
// is replaced, not modified, by later refreshes.
func (l *Layer) Tiles() []*Resource {
	return l.order
}

// Len returns the number of tracked tiles.
func (l *Layer) Len() int {
	return len(l.tiles)
}

// Hidden reports whether a zoom change is waiting for its debounce to
// elapse. Hosts should not draw the layer while it is hidden.
func (l *Layer) Hidden() bool {
	return l.hidden
}

// TileSize returns the on-screen edge length of a tile in pixels.
func (l *Layer) TileSize() float64 {
	return l.tileSize
}

// Cycles returns how many times the tile set has been recomputed.
func (l *Layer) Cycles() int {
	return l.cycles
}

// Attribution resolves the layer's attribution text.
func (l *Layer) Attribution() string {
	return l.opts.attribution.Resolve(l.vp)
}

// Dispose cancels pending loads and detaches the layer from its viewport.
// It is safe to call more than once.
func (l *Layer) Dispose() {
	if l.disposed {
		return
	}
	l.disposed = true
	l.remove()
	if l.debounce != nil {
		l.debounce.Stop()
		l.debounce = nil
	}
	for key, r := range l.tiles {
		r.stop()
		delete(l.tiles, key)
	}
	l.order = nil
}

func (l *Layer) onRender() {
	if l.disposed {
		return
	}
	z := l.vp.Zoom()
	if l.computed && z != l.zoom && l.opts.debounce > 0 {
		if l.debounce != nil && z == l.pending {
			return
		}
		l.hidden = true
		l.pending = z
		if l.debounce != nil {
			l.debounce.Stop()
		}
		l.debounce = l.sched.AfterFunc(l.opts.debounce, func() {
			l.debounce = nil
			l.hidden = false
			l.refresh()
		})
		return
	}
	if l.debounce != nil {
		l.debounce.Stop()
		l.debounce = nil
		l.hidden = false
	}
	l.refresh()
}

func (l *Layer) refresh() {
	if l.disposed {
		return
	}
	l.cycles++
	layerRefreshes.Inc()

	zoom := l.vp.Zoom()
	z := ZoomLevel(zoom)
	ts := geo.TileSize * math.Exp2(zoom-float64(z))
	l.zoom, l.computed, l.tileSize = zoom, true, ts

	box := l.vp.Box()
	if box.Empty() {
		l.retain(nil)
		return
	}

	c := l.vp.CenterPixel()
	half := box.Half()
	origin := c.Sub(half)
	lo := origin.Sub(l.opts.margin)
	hi := c.Add(half).Add(l.opts.margin)

	n := 1 << z
	cx, cy := int(math.Floor(c.X/ts)), int(math.Floor(c.Y/ts))
	x0, x1 := int(math.Floor(lo.X/ts)), int(math.Floor(hi.X/ts))
	y0, y1 := max(0, int(math.Floor(lo.Y/ts))), min(n-1, int(math.Floor(hi.Y/ts)))

	lang := l.vp.Lang()
	var order []*Resource
	for _, y := range outward(cy, y0, y1) {
		for _, x := range outward(cx, x0, x1) {
			t := Tile{X: x, Y: y, Zoom: z, Lang: lang}
			key := t.Key()
			r, ok := l.tiles[key]
			if !ok {
				r = &Resource{Tile: t}
				l.tiles[key] = r
				l.start(r)
			}
			r.Pos = geo.Pt(float64(x)*ts-origin.X, float64(y)*ts-origin.Y)
			order = append(order, r)
		}
	}
	l.retain(order)
}

// retain makes order the tracked set and drops every other tile.
func (l *Layer) retain(order []*Resource) {
	keep := make(map[*Resource]bool, len(order))
	for _, r := range order {
		keep[r] = true
	}
	for key, r := range l.tiles {
		if !keep[r] {
			r.stop()
			delete(l.tiles, key)
			tilesEvicted.Inc()
		}
	}
	l.order = order
}

// outward lists the integers in [lo, hi] ordered by distance from c:
// c, c+1, c-1, c+2, c-2 and so on.
func outward(c, lo, hi int) []int {
	if lo > hi {
		return nil
	}
	out := make([]int, 0, hi-lo+1)
	for k := 0; c+k <= hi || c-k >= lo; k++ {
		if v := c + k; v >= lo && v <= hi {
			out = append(out, v)
		}
		if v := c - k; k > 0 && v >= lo && v <= hi {
			out = append(out, v)
		}
	}
	return out
}

func (l *Layer) start(r *Resource) {
	r.url = l.url(l.vp, r.Tile.X, r.Tile.Y)
	if r.url == "" {
		l.exhausted(r)
		return
	}
	l.issue(r, r.url)
}

func (l *Layer) issue(r *Resource, url string) {
	r.State = Loading
	r.cancel = l.loader.Load(url, func(img image.Image, err error) {
		l.loaded(r, img, err)
	})
}

func (l *Layer) tracked(r *Resource) bool {
	return !l.disposed && l.tiles[r.Tile.Key()] == r
}

func (l *Layer) loaded(r *Resource, img image.Image, err error) {
	r.cancel = nil
	if !l.tracked(r) {
		return
	}
	log := logging.Logger()

	if err == nil {
		r.Image = img
		if r.fallback {
			r.State = Placeholder
			tileLoads.WithLabelValues("placeholder").Inc()
		} else {
			r.State = Loaded
			tileLoads.WithLabelValues("loaded").Inc()
		}
		return
	}

	if r.fallback {
		log.Debug("error tile failed", "tile", r.Tile, "err", err)
		l.placeholder(r)
		return
	}
	if r.attempts < l.opts.retries {
		r.attempts++
		r.State = Errored
		tileRetries.Inc()
		log.Debug("retrying tile", "tile", r.Tile, "attempt", r.attempts, "err", err)
		l.issue(r, bust(r.url, r.attempts))
		return
	}
	log.Debug("tile failed", "tile", r.Tile, "attempts", r.attempts+1, "err", err)
	l.exhausted(r)
}

// exhausted switches r to its fallback once no more attempts remain.
func (l *Layer) exhausted(r *Resource) {
	r.State = Errored
	if l.opts.errorURL != nil {
		if u := l.opts.errorURL(l.vp, r.Tile.X, r.Tile.Y); u != "" {
			r.fallback = true
			l.issue(r, u)
			return
		}
	}
	l.placeholder(r)
}

func (l *Layer) placeholder(r *Resource) {
	r.fallback = true
	if l.opts.placeholder == nil {
		r.State = Failed
		tileLoads.WithLabelValues("failed").Inc()
		return
	}
	r.Image = l.opts.placeholder(r.Tile)
	r.State = Placeholder
	tileLoads.WithLabelValues("placeholder").Inc()
}
