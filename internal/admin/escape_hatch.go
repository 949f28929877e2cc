package admin

import (
	"sync"
	"time"
)

// TapDetector recognises the hidden admin gesture: count taps, each within
// window of the previous one.
type TapDetector struct {
	count  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	taps int
	last time.Time
}

// NewTapDetector creates a TapDetector. A nil now uses time.Now.
func NewTapDetector(count int, window time.Duration, now func() time.Time) *TapDetector {
	if now == nil {
		now = time.Now
	}
	return &TapDetector{count: count, window: window, now: now}
}

// Tap records one tap and reports whether it completed the gesture.
func (d *TapDetector) Tap() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := d.now()
	if d.taps > 0 && t.Sub(d.last) > d.window {
		d.taps = 0
	}
	d.taps++
	d.last = t

	if d.taps >= d.count {
		d.taps = 0
		return true
	}
	return false
}

// Progress returns the taps counted towards the gesture.
func (d *TapDetector) Progress() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.taps
}
