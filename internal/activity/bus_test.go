package activity_test

import (
	"testing"

	"github.com/benmeehan/kiosk-agent/internal/activity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// TestBus_PublishReachesAllListeners tests fan-out to every subscriber.
func TestBus_PublishReachesAllListeners(t *testing.T) {
	// Setup
	bus := activity.NewBus(zerolog.Nop())
	var a, b []activity.Source
	bus.Subscribe(func(s activity.Source) { a = append(a, s) })
	bus.Subscribe(func(s activity.Source) { b = append(b, s) })

	// Execute
	bus.Publish(activity.SourceTap)
	bus.Publish(activity.SourceForeground)

	// Assert
	assert.Equal(t, []activity.Source{activity.SourceTap, activity.SourceForeground}, a)
	assert.Equal(t, a, b)
}

// TestBus_Unsubscribe tests that an unsubscribed listener no longer receives signals.
func TestBus_Unsubscribe(t *testing.T) {
	// Setup
	bus := activity.NewBus(zerolog.Nop())
	calls := 0
	unsubscribe := bus.Subscribe(func(activity.Source) { calls++ })

	// Execute
	bus.Publish(activity.SourceTap)
	unsubscribe()
	unsubscribe()
	bus.Publish(activity.SourceTap)

	// Assert
	assert.Equal(t, 1, calls)
	assert.Zero(t, bus.Count())
}
