package tiles

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"sync/atomic"
	"time"

	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/olablt/gio-viewport/clock"
	"github.com/olablt/gio-viewport/logging"
	"github.com/olablt/gio-viewport/tiles/worker"
)

const (
	DefaultUserAgent = "gio-viewport/1.0"
	DefaultWorkers   = 8
	DefaultTimeout   = 15 * time.Second
)

// HTTPLoader fetches and decodes PNG, JPEG and WebP tiles over HTTP on a
// bounded worker pool. Decoded images are cached by URL and concurrent
// requests for the same URL share one fetch. Completions are delivered
// through the scheduler.
type HTTPLoader struct {
	sched   clock.Scheduler
	client  *http.Client
	pool    *worker.Pool
	cache   *ImageCache
	group   singleflight.Group
	limiter *rate.Limiter
	header  http.Header
	timeout time.Duration
}

type httpOptions struct {
	client    *http.Client
	workers   int
	cacheSize int
	rps       float64
	burst     int
	userAgent string
	referer   string
	timeout   time.Duration
}

// HTTPOption configures an HTTPLoader.
type HTTPOption func(*httpOptions)

func WithHTTPClient(c *http.Client) HTTPOption {
	return func(o *httpOptions) { o.client = c }
}

func WithWorkers(n int) HTTPOption {
	return func(o *httpOptions) { o.workers = n }
}

func WithCacheSize(n int) HTTPOption {
	return func(o *httpOptions) { o.cacheSize = n }
}

// WithRateLimit caps outgoing requests to rps per second with the given
// burst. A non-positive rps means unlimited.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(o *httpOptions) { o.rps, o.burst = rps, burst }
}

// WithUserAgent sets the User-Agent header. Most public tile servers reject
// requests without one.
func WithUserAgent(ua string) HTTPOption {
	return func(o *httpOptions) { o.userAgent = ua }
}

func WithReferer(ref string) HTTPOption {
	return func(o *httpOptions) { o.referer = ref }
}

func WithTimeout(d time.Duration) HTTPOption {
	return func(o *httpOptions) { o.timeout = d }
}

func NewHTTPLoader(sched clock.Scheduler, opts ...HTTPOption) *HTTPLoader {
	o := httpOptions{
		workers:   DefaultWorkers,
		cacheSize: DefaultCacheSize,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: o.timeout}
	}

	limit := rate.Inf
	if o.rps > 0 {
		limit = rate.Limit(o.rps)
	}
	header := http.Header{}
	header.Set("User-Agent", o.userAgent)
	header.Set("Accept", "image/webp,image/png,image/jpeg,image/*;q=0.8")
	if o.referer != "" {
		header.Set("Referer", o.referer)
	}

	return &HTTPLoader{
		sched:   sched,
		client:  o.client,
		pool:    worker.NewPool(o.workers, o.timeout),
		cache:   NewImageCache(o.cacheSize),
		limiter: rate.NewLimiter(limit, max(1, o.burst)),
		header:  header,
		timeout: o.timeout,
	}
}

// Load implements Loader.
func (h *HTTPLoader) Load(url string, done func(image.Image, error)) func() {
	var canceled atomic.Bool
	deliver := func(img image.Image, err error) {
		h.sched.AfterFunc(0, func() {
			if !canceled.Load() {
				done(img, err)
			}
		})
	}

	if img, ok := h.cache.Get(url); ok {
		cacheHits.Inc()
		deliver(img, nil)
		return func() { canceled.Store(true) }
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.pool.Submit(worker.Task{
		Ctx:  ctx,
		Name: url,
		Work: func(ctx context.Context) error {
			img, err := h.Fetch(ctx, url)
			deliver(img, err)
			return err
		},
	})
	return func() {
		canceled.Store(true)
		cancel()
	}
}

// Fetch downloads and decodes url, consulting the cache first.
func (h *HTTPLoader) Fetch(ctx context.Context, url string) (image.Image, error) {
	if img, ok := h.cache.Get(url); ok {
		cacheHits.Inc()
		return img, nil
	}
	ch := h.group.DoChan(url, func() (any, error) {
		// Shared by every waiter, so detached from any single caller.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
		defer cancel()
		return h.fetch(ctx, url)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	}
}

func (h *HTTPLoader) fetch(ctx context.Context, url string) (image.Image, error) {
	cacheMisses.Inc()
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header = h.header.Clone()

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	fetchDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiles: GET %s: unexpected status %s", url, resp.Status)
	}
	img, format, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tiles: decode %s: %w", url, err)
	}
	logging.Logger().Debug("tile fetched", "url", url, "format", format, "elapsed", time.Since(start))
	h.cache.Add(url, img)
	return img, nil
}

// Close stops the worker pool. Pending loads never complete.
func (h *HTTPLoader) Close() {
	h.pool.Shutdown()
}
