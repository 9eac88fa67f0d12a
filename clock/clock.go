// Package clock provides the deferred-callback primitives the viewport runs on.
//
// Everything the viewport defers (debounced tile reloads, gesture throttling,
// animation frames, results of background tile fetches) is queued on a Loop
// and executed only from Loop.Run, which the host calls on its UI goroutine.
// Viewport state is therefore never touched from two goroutines at once.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a handle to a pending callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call stopped it,
	// false if it already ran or was already stopped.
	Stop() bool
}

// Scheduler is the host's asynchronous queue.
type Scheduler interface {
	Now() time.Time
	// AfterFunc runs f on the loop once d has elapsed. Safe to call from any
	// goroutine; a zero duration posts f to the next Run.
	AfterFunc(d time.Duration, f func()) Timer
	// RequestFrame runs f on the next frame.
	RequestFrame(f func()) Timer
}

type timer struct {
	loop  *Loop
	at    time.Time
	seq   uint64
	f     func()
	done  bool
	frame bool
}

func (t *timer) Stop() bool {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.loop.remove(t)
	return true
}

// Loop is a Scheduler whose callbacks run inside Run.
type Loop struct {
	mu     sync.Mutex
	now    func() time.Time
	wake   func()
	seq    uint64
	timers []*timer
	frames []*timer
}

// NewLoop returns a loop on wall-clock time. wake, if not nil, is called
// whenever new work is queued so the host can schedule a Run (for Gio, an
// invalidate of the window). It may be called from any goroutine.
func NewLoop(wake func()) *Loop {
	return &Loop{now: time.Now, wake: wake}
}

func (l *Loop) Now() time.Time {
	return l.now()
}

func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	l.mu.Lock()
	l.seq++
	t := &timer{loop: l, at: l.now().Add(d), seq: l.seq, f: f}
	l.timers = append(l.timers, t)
	l.mu.Unlock()
	l.notify()
	return t
}

func (l *Loop) RequestFrame(f func()) Timer {
	l.mu.Lock()
	l.seq++
	t := &timer{loop: l, seq: l.seq, f: f, frame: true}
	l.frames = append(l.frames, t)
	l.mu.Unlock()
	l.notify()
	return t
}

// Run executes the frame callbacks queued before the call, then every timer
// that is due, in deadline order. Work queued by the callbacks themselves
// runs in the same call when already due, frames wait for the next Run.
func (l *Loop) Run() {
	l.mu.Lock()
	frames := l.frames
	l.frames = nil
	for _, t := range frames {
		t.done = true
	}
	l.mu.Unlock()

	for _, t := range frames {
		t.f()
	}
	l.runUntil(l.Now())
}

// Next reports when Run next has something to do. ok is false when nothing
// is queued.
func (l *Loop) Next() (at time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.frames) > 0 {
		return l.now(), true
	}
	if t := l.earliest(); t != nil {
		return t.at, true
	}
	return time.Time{}, false
}

// Pending returns the number of queued timers and frames.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers) + len(l.frames)
}

func (l *Loop) runUntil(now time.Time) {
	for {
		l.mu.Lock()
		t := l.popDue(now)
		l.mu.Unlock()
		if t == nil {
			return
		}
		t.f()
	}
}

func (l *Loop) notify() {
	if l.wake != nil {
		l.wake()
	}
}

// earliest must be called with mu held.
func (l *Loop) earliest() *timer {
	if len(l.timers) == 0 {
		return nil
	}
	sort.SliceStable(l.timers, func(i, j int) bool {
		a, b := l.timers[i], l.timers[j]
		if !a.at.Equal(b.at) {
			return a.at.Before(b.at)
		}
		return a.seq < b.seq
	})
	return l.timers[0]
}

// popDue must be called with mu held.
func (l *Loop) popDue(now time.Time) *timer {
	t := l.earliest()
	if t == nil || t.at.After(now) {
		return nil
	}
	l.timers = l.timers[1:]
	t.done = true
	return t
}

// remove must be called with mu held.
func (l *Loop) remove(t *timer) {
	list := &l.timers
	if t.frame {
		list = &l.frames
	}
	for i, x := range *list {
		if x == t {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}
