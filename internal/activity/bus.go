package activity

import (
	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
)

// Source identifies what produced an activity signal.
type Source string

const (
	SourceTap          Source = "tap"
	SourceKeyboardShow Source = "keyboard_show"
	SourceKeyboardHide Source = "keyboard_hide"
	SourceForeground   Source = "foreground"
	SourceAction       Source = "action"
)

// Listener receives activity signals.
type Listener func(Source)

// Bus broadcasts user activity to any number of listeners.
type Bus struct {
	listeners cmap.ConcurrentMap[string, Listener]
	logger    zerolog.Logger
}

// NewBus creates an empty Bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		listeners: cmap.New[Listener](),
		logger:    logger,
	}
}

// Subscribe registers l and returns a function that removes it. The
// returned function is safe to call more than once.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	id := uuid.NewString()
	b.listeners.Set(id, l)
	return func() {
		b.listeners.Remove(id)
	}
}

// Publish delivers src to every listener registered at the time of the call.
func (b *Bus) Publish(src Source) {
	b.logger.Trace().Str("source", string(src)).Msg("Activity")
	for _, l := range b.listeners.Items() {
		l(src)
	}
}

// Count returns the number of registered listeners.
func (b *Bus) Count() int {
	return b.listeners.Count()
}
