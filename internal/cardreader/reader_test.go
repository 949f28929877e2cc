package cardreader_test

import (
	"context"
	"testing"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/cardreader"
	"github.com/benmeehan/kiosk-agent/internal/clock"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSimulated_Read tests that a read completes exactly after the delay.
func TestSimulated_Read(t *testing.T) {
	// Setup
	m := clock.NewManual(time.Unix(0, 0))
	reader := cardreader.NewSimulated(1500*time.Millisecond, m, zerolog.Nop())
	done := make(chan error, 1)

	// Execute
	go func() { done <- reader.Read(context.Background(), models.CardVitale) }()
	require.Eventually(t, func() bool { return m.Pending() == 1 }, time.Second, time.Millisecond)
	m.Advance(1499 * time.Millisecond)

	// Assert
	select {
	case <-done:
		t.Fatal("card read finished before the delay")
	case <-time.After(20 * time.Millisecond):
	}

	m.Advance(time.Millisecond)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("card read did not finish")
	}
}

// TestSimulated_Cancelled tests that a cancelled context interrupts the read.
func TestSimulated_Cancelled(t *testing.T) {
	m := clock.NewManual(time.Unix(0, 0))
	reader := cardreader.NewSimulated(time.Hour, m, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := reader.Read(ctx, models.CardMutuelle)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, m.Pending())
}
