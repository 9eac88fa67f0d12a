package persist

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/olablt/gio-viewport/clock"
	"github.com/olablt/gio-viewport/geo"
	"github.com/olablt/gio-viewport/logging"
	"github.com/olablt/gio-viewport/tiles/worker"
	"github.com/olablt/gio-viewport/viewport"
)

const (
	DefaultKey      = "viewport"
	DefaultDebounce = 350 * time.Millisecond
	DefaultTimeout  = 2 * time.Second
)

type options struct {
	debounce time.Duration
	timeout  time.Duration
	own      bool
}

type Option func(*options)

// WithDebounce sets how long the viewport must stay unchanged before its
// state is written.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithTimeout bounds every store call.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// OwnStore hands the store to the binding: Remove closes it once the last
// store call has finished, if it has a Close method.
func OwnStore() Option {
	return func(o *options) { o.own = true }
}

// Binding keeps a viewport and a store entry in sync. Its methods must be
// called on the UI loop. Store calls run on a background worker and their
// results are posted back to the loop, so a slow store never stalls a frame.
// Store failures and malformed entries are logged and otherwise ignored.
type Binding struct {
	vp      *viewport.Viewport
	store   Store
	key     string
	sched   clock.Scheduler
	opts    options
	initial viewport.State
	pool    *worker.Pool

	loaded   bool
	disabled bool
	removed  bool
	pending  clock.Timer
	remove   func()
}

// Bind restores vp from key, or seeds key with the current state when it
// is empty, then writes the state back after every burst of changes.
func Bind(vp *viewport.Viewport, store Store, key string, sched clock.Scheduler, opts ...Option) *Binding {
	o := options{debounce: DefaultDebounce, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if key == "" {
		key = DefaultKey
	}
	b := &Binding{
		vp:      vp,
		store:   store,
		key:     key,
		sched:   sched,
		opts:    o,
		initial: vp.State(),
		// One worker keeps reads and writes in submission order.
		pool: worker.NewPool(1, o.timeout),
	}
	b.Sync()
	b.remove = vp.OnRender(b.onRender)
	return b
}

func (b *Binding) onRender() {
	if b.disabled {
		return
	}
	if b.pending != nil {
		b.pending.Stop()
	}
	b.pending = b.sched.AfterFunc(b.opts.debounce, func() {
		b.pending = nil
		b.Write()
	})
}

// Sync restores the stored state, or writes the current one if nothing is
// stored yet. The viewport changes once the store answers.
func (b *Binding) Sync() {
	b.submit("sync "+b.key, func(ctx context.Context) error {
		raw, err := b.store.Get(ctx, b.key)
		b.sched.AfterFunc(0, func() { b.apply(raw, err) })
		return nil
	})
}

func (b *Binding) apply(raw []byte, err error) {
	if b.removed {
		return
	}
	b.loaded = true

	log := logging.Logger()
	switch {
	case errors.Is(err, ErrNotFound):
		b.Write()
		return
	case err != nil:
		log.Debug("viewport state not loaded", "key", b.key, "err", err)
		return
	}

	s, err := decode(raw, b.vp.State())
	if err != nil {
		log.Debug("ignoring malformed viewport state", "key", b.key, "err", err)
		return
	}
	b.vp.Restore(s)
}

// decode overlays the top-level fields present in raw on base. Fields the
// entry lacks keep their current value; a present field replaces it whole.
func decode(raw []byte, base viewport.State) (viewport.State, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return base, err
	}
	if _, ok := fields["bounds"]; ok {
		base.Bounds = geo.Bounds{}
	}
	if _, ok := fields["center"]; ok {
		base.Center = geo.LatLng{}
	}
	err := json.Unmarshal(raw, &base)
	return base, err
}

// Write saves the current state. The state is captured now; the store call
// happens in the background.
func (b *Binding) Write() {
	raw, err := json.Marshal(b.vp.State())
	if err != nil {
		logging.Logger().Debug("viewport state not encoded", "err", err)
		return
	}
	b.submit("write "+b.key, func(ctx context.Context) error {
		if err := b.store.Set(ctx, b.key, raw); err != nil {
			logging.Logger().Debug("viewport state not saved", "key", b.key, "err", err)
		}
		return nil
	})
}

func (b *Binding) submit(name string, work func(ctx context.Context) error) {
	if b.removed {
		return
	}
	b.pool.Submit(worker.Task{Work: work, Name: name})
}

// Loaded reports whether the answer to the last Sync has been applied.
func (b *Binding) Loaded() bool {
	return b.loaded
}

// Toggle enables or disables automatic writes.
func (b *Binding) Toggle(enabled bool) {
	b.disabled = !enabled
	if b.disabled && b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
}

// Enabled reports whether automatic writes are on.
func (b *Binding) Enabled() bool {
	return !b.disabled
}

// Reset puts the viewport back to the state it had when bound.
func (b *Binding) Reset() {
	b.vp.Restore(b.initial)
}

// Remove detaches the binding, drops a pending write and cancels store
// calls still in flight. The stored entry is kept.
func (b *Binding) Remove() {
	if b.removed {
		return
	}
	b.Toggle(false)
	b.removed = true
	if b.remove != nil {
		b.remove()
		b.remove = nil
	}
	b.pool.Shutdown()
	if c, ok := b.store.(interface{ Close() }); ok && b.opts.own {
		c.Close()
	}
}
