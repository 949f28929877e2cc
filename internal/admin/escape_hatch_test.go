package admin_test

import (
	"testing"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/admin"
	"github.com/stretchr/testify/assert"
)

type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

// TestTapDetector_FiveQuickTaps tests that five taps inside the window open the gesture.
func TestTapDetector_FiveQuickTaps(t *testing.T) {
	// Setup
	clock := &fakeNow{t: time.Unix(0, 0)}
	detector := admin.NewTapDetector(5, 2*time.Second, clock.now)

	// Execute
	var opened []bool
	for i := 0; i < 5; i++ {
		opened = append(opened, detector.Tap())
		clock.advance(1900 * time.Millisecond)
	}

	// Assert
	assert.Equal(t, []bool{false, false, false, false, true}, opened)
	assert.Equal(t, 0, detector.Progress())
}

// TestTapDetector_SlowTapResets tests that a gap longer than the window restarts the count.
func TestTapDetector_SlowTapResets(t *testing.T) {
	clock := &fakeNow{t: time.Unix(0, 0)}
	detector := admin.NewTapDetector(5, 2*time.Second, clock.now)

	for i := 0; i < 4; i++ {
		assert.False(t, detector.Tap())
	}
	clock.advance(2001 * time.Millisecond)

	assert.False(t, detector.Tap())
	assert.Equal(t, 1, detector.Progress())
	for i := 0; i < 3; i++ {
		assert.False(t, detector.Tap())
	}
	assert.True(t, detector.Tap())
}
