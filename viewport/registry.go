package viewport

import "slices"

// registry is an ordered list of callbacks that tolerates removal while it
// is being notified. Notification walks a snapshot and skips entries removed
// since the snapshot was taken.
type registry struct {
	entries []*entry
}

type entry struct {
	fn      func()
	removed bool
}

func (r *registry) add(fn func()) func() {
	e := &entry{fn: fn}
	r.entries = append(r.entries, e)
	return func() {
		if e.removed {
			return
		}
		e.removed = true
		if i := slices.Index(r.entries, e); i >= 0 {
			r.entries = slices.Delete(r.entries, i, i+1)
		}
	}
}

func (r *registry) notify() {
	for _, e := range slices.Clone(r.entries) {
		if !e.removed {
			e.fn()
		}
	}
}

func (r *registry) clear() {
	for _, e := range r.entries {
		e.removed = true
	}
	r.entries = nil
}

func (r *registry) len() int {
	return len(r.entries)
}
