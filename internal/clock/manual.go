package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler whose time only moves on Advance. Callbacks run
// synchronously inside Advance, in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	owner    *Manual
	deadline time.Time
	seq      int
	fn       func()
	done     bool
}

// NewManual creates a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{owner: m, deadline: m.now.Add(d), seq: m.seq, fn: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves time forward by d, firing every timer that falls due,
// including timers scheduled by callbacks during the advance.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		next.done = true
		m.now = next.deadline
		m.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of timers that have not fired or been stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.compact()
	return len(m.timers)
}

// nextDue must be called with mu held.
func (m *Manual) nextDue(target time.Time) *manualTimer {
	m.compact()
	sort.Slice(m.timers, func(i, j int) bool {
		if m.timers[i].deadline.Equal(m.timers[j].deadline) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].deadline.Before(m.timers[j].deadline)
	})
	if len(m.timers) == 0 || m.timers[0].deadline.After(target) {
		return nil
	}
	return m.timers[0]
}

func (m *Manual) compact() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	m.timers = live
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}
