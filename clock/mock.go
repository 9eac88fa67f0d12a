package clock

import (
	"sync"
	"time"
)

// Mock is a Loop on manual time, for tests.
type Mock struct {
	*Loop

	mu  sync.Mutex
	cur time.Time
}

// NewMock returns a mock clock starting at start.
func NewMock(start time.Time) *Mock {
	m := &Mock{cur: start}
	m.Loop = &Loop{now: m.current}
	return m
}

func (m *Mock) current() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

func (m *Mock) set(t time.Time) {
	m.mu.Lock()
	if t.After(m.cur) {
		m.cur = t
	}
	m.mu.Unlock()
}

// Advance moves time forward by d, running every timer that falls due on
// the way with the clock set to that timer's deadline.
func (m *Mock) Advance(d time.Duration) {
	target := m.current().Add(d)
	for {
		m.Loop.mu.Lock()
		t := m.Loop.popDue(target)
		m.Loop.mu.Unlock()
		if t == nil {
			break
		}
		m.set(t.at)
		t.f()
	}
	m.set(target)
}

// Frame runs the pending animation-frame callbacks and anything already due.
func (m *Mock) Frame() {
	m.Loop.Run()
}
