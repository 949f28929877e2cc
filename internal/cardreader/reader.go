package cardreader

import (
	"context"
	"fmt"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/clock"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/rs/zerolog"
)

// Reader reads a health or insurance card.
type Reader interface {
	Read(ctx context.Context, kind models.CardKind) error
}

// Simulated stands in for card hardware: every read succeeds after Delay.
type Simulated struct {
	delay     time.Duration
	scheduler clock.Scheduler
	logger    zerolog.Logger
}

// NewSimulated creates a Simulated reader timed by scheduler.
func NewSimulated(delay time.Duration, scheduler clock.Scheduler, logger zerolog.Logger) *Simulated {
	return &Simulated{delay: delay, scheduler: scheduler, logger: logger}
}

// Read waits for the configured delay. It fails only if ctx ends first.
func (s *Simulated) Read(ctx context.Context, kind models.CardKind) error {
	s.logger.Debug().Str("card", string(kind)).Dur("delay", s.delay).Msg("Reading card")

	read := make(chan struct{})
	timer := s.scheduler.AfterFunc(s.delay, func() { close(read) })
	defer timer.Stop()

	select {
	case <-read:
		s.logger.Info().Str("card", string(kind)).Msg("Card read")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("card read interrupted: %w", ctx.Err())
	}
}
