package clock_test

import (
	"testing"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/clock"
	"github.com/stretchr/testify/assert"
)

// TestManual_AdvanceFiresInOrder tests that due timers fire in deadline order.
func TestManual_AdvanceFiresInOrder(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	var fired []string

	m.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	m.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	m.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

	m.Advance(3 * time.Second)

	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, time.Unix(3, 0), m.Now())
}

// TestManual_ChainedTimers tests that timers scheduled by callbacks fire within the same advance.
func TestManual_ChainedTimers(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		m.AfterFunc(time.Second, tick)
	}
	m.AfterFunc(time.Second, tick)

	m.Advance(10 * time.Second)

	assert.Equal(t, 10, ticks)
}

// TestManual_Stop tests that a stopped timer never fires.
func TestManual_Stop(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	fired := false
	timer := m.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	m.Advance(2 * time.Second)

	assert.False(t, fired)
	assert.Zero(t, m.Pending())
}
