package inactivity

import (
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/activity"
	"github.com/benmeehan/kiosk-agent/internal/clock"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/benmeehan/kiosk-agent/internal/utils"
	"github.com/rs/zerolog"
)

// Phase of the idle detector.
type Phase string

const (
	PhaseDormant      Phase = "dormant"
	PhaseCountingDown Phase = "counting_down"
)

// Config holds the supervisor timings, in seconds.
type Config struct {
	Timeout          int
	WarningThreshold int
	InitialDelay     int
	DisabledRoutes   []models.Step
}

// State is the observable supervisor state.
type State struct {
	Phase            Phase     `json:"phase"`
	SecondsRemaining int       `json:"seconds_remaining"`
	Deadline         time.Time `json:"deadline,omitempty"`
	Visible          bool      `json:"visible"`
	Urgent           bool      `json:"urgent"`
	Inert            bool      `json:"inert"`
}

// ActivitySource is where the supervisor listens for activity.
type ActivitySource interface {
	Subscribe(l activity.Listener) (unsubscribe func())
}

// Supervisor returns an idle kiosk to the home step. It counts silent
// seconds while Dormant, shows a countdown once InitialDelay has passed,
// and calls onTimeout when the countdown reaches zero.
type Supervisor struct {
	cfg       Config
	disabled  map[models.Step]struct{}
	source    ActivitySource
	scheduler clock.Scheduler
	onTimeout func()
	logger    zerolog.Logger

	mu          sync.Mutex
	phase       Phase
	idle        int
	remaining   int
	inert       bool
	route       models.Step
	listeners   []func(State)
	running     bool
	ticker      clock.Timer
	tickGen     uint64
	unsubscribe func()
}

// NewSupervisor creates a Supervisor in the Dormant phase.
func NewSupervisor(cfg Config, source ActivitySource, scheduler clock.Scheduler, onTimeout func(),
	logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		cfg:       cfg,
		disabled:  utils.SliceToSet(cfg.DisabledRoutes),
		source:    source,
		scheduler: scheduler,
		onTimeout: onTimeout,
		logger:    logger,
		phase:     PhaseDormant,
	}
}

// Start subscribes to activity and begins one-second ticking.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Warn().Msg("Inactivity supervisor is already running")
		return errors.New("inactivity service is already running")
	}

	if s.source != nil {
		s.unsubscribe = s.source.Subscribe(func(activity.Source) { s.Activity() })
	}
	s.running = true
	s.scheduleTick()

	s.logger.Info().Int("timeout", s.cfg.Timeout).Int("initial_delay", s.cfg.InitialDelay).
		Msg("Inactivity supervisor started")
	return nil
}

// Stop cancels ticking and the activity subscription.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Warn().Msg("Inactivity supervisor is not running")
		return errors.New("inactivity service is not running")
	}

	s.running = false
	s.cancelTick()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}

	s.logger.Info().Msg("Inactivity supervisor stopped")
	return nil
}

// OnChange registers fn to receive every state change.
func (s *Supervisor) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// State returns the current state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Activity records a user interaction. The next tick comes one full second
// after it.
func (s *Supervisor) Activity() {
	s.mu.Lock()
	if s.inert {
		s.mu.Unlock()
		return
	}
	s.restartTick()

	switch s.phase {
	case PhaseDormant:
		s.idle = 0
		s.mu.Unlock()
		return
	case PhaseCountingDown:
		s.remaining = s.cfg.Timeout
	}
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state, listeners)
}

// Tick advances the supervisor by one second.
func (s *Supervisor) Tick() {
	s.mu.Lock()
	if s.inert {
		s.mu.Unlock()
		return
	}

	timedOut := false
	switch s.phase {
	case PhaseDormant:
		s.idle++
		if s.idle < s.cfg.InitialDelay {
			s.mu.Unlock()
			return
		}
		s.phase = PhaseCountingDown
		s.remaining = s.cfg.Timeout
	case PhaseCountingDown:
		s.remaining--
		if s.remaining <= 0 {
			s.phase = PhaseDormant
			s.idle = 0
			s.remaining = 0
			timedOut = true
		}
	}
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state, listeners)
	if timedOut {
		s.logger.Info().Str("route", string(s.currentRoute())).Msg("Inactivity timeout, returning home")
		if s.onTimeout != nil {
			s.onTimeout()
		}
	}
}

// SetRoute tells the supervisor which step is displayed. Disabled steps
// make it inert and hide any countdown; leaving them restarts from Dormant.
func (s *Supervisor) SetRoute(step models.Step) {
	s.mu.Lock()
	s.route = step
	_, disabled := s.disabled[step]

	switch {
	case disabled && !s.inert:
		s.inert = true
	case !disabled && s.inert:
		s.inert = false
	default:
		s.mu.Unlock()
		return
	}
	s.phase = PhaseDormant
	s.idle = 0
	s.remaining = 0
	s.restartTick()
	state, listeners := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(state, listeners)
}

func (s *Supervisor) currentRoute() models.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

// scheduleTick must be called with mu held.
func (s *Supervisor) scheduleTick() {
	gen := s.tickGen
	s.ticker = s.scheduler.AfterFunc(time.Second, func() { s.onTick(gen) })
}

// cancelTick drops the pending tick, including one that already fired and
// is waiting for mu. It must be called with mu held.
func (s *Supervisor) cancelTick() {
	s.tickGen++
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

// restartTick must be called with mu held.
func (s *Supervisor) restartTick() {
	if !s.running {
		return
	}
	s.cancelTick()
	s.scheduleTick()
}

func (s *Supervisor) onTick(gen uint64) {
	s.mu.Lock()
	if !s.running || gen != s.tickGen {
		s.mu.Unlock()
		return
	}
	s.scheduleTick()
	s.mu.Unlock()

	s.Tick()
}

func (s *Supervisor) stateLocked() State {
	state := State{Phase: s.phase, Inert: s.inert}
	if s.phase == PhaseCountingDown {
		state.SecondsRemaining = s.remaining
		state.Visible = true
		state.Urgent = s.remaining <= s.cfg.WarningThreshold
		if s.scheduler != nil {
			state.Deadline = s.scheduler.Now().Add(time.Duration(s.remaining) * time.Second)
		}
	}
	return state
}

func (s *Supervisor) snapshotLocked() (State, []func(State)) {
	listeners := make([]func(State), len(s.listeners))
	copy(listeners, s.listeners)
	return s.stateLocked(), listeners
}

func (s *Supervisor) notify(state State, listeners []func(State)) {
	for _, l := range listeners {
		l(state)
	}
}
