package inactivity_test

import (
	"testing"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/activity"
	"github.com/benmeehan/kiosk-agent/internal/clock"
	"github.com/benmeehan/kiosk-agent/internal/inactivity"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	clock      *clock.Manual
	bus        *activity.Bus
	supervisor *inactivity.Supervisor
	homeCalls  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock: clock.NewManual(time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)),
		bus:   activity.NewBus(zerolog.Nop()),
	}
	cfg := inactivity.Config{
		Timeout:          30,
		WarningThreshold: 5,
		InitialDelay:     5,
		DisabledRoutes:   []models.Step{models.StepHome, models.StepKioskAuth},
	}
	f.supervisor = inactivity.NewSupervisor(cfg, f.bus, f.clock, func() { f.homeCalls++ }, zerolog.Nop())
	f.supervisor.SetRoute(models.StepMethodChoice)
	require.NoError(t, f.supervisor.Start())
	t.Cleanup(func() { _ = f.supervisor.Stop() })
	return f
}

// TestSupervisor_CountdownAppearsAfterInitialDelay tests the Dormant to CountingDown transition.
func TestSupervisor_CountdownAppearsAfterInitialDelay(t *testing.T) {
	f := newFixture(t)

	f.clock.Advance(4 * time.Second)
	assert.Equal(t, inactivity.PhaseDormant, f.supervisor.State().Phase)

	f.clock.Advance(1 * time.Second)
	state := f.supervisor.State()
	assert.Equal(t, inactivity.PhaseCountingDown, state.Phase)
	assert.Equal(t, 30, state.SecondsRemaining)
	assert.True(t, state.Visible)
	assert.Equal(t, f.clock.Now().Add(30*time.Second), state.Deadline)
}

// TestSupervisor_ActivityResetsCountdown tests that activity restores the full timeout.
func TestSupervisor_ActivityResetsCountdown(t *testing.T) {
	// Setup
	f := newFixture(t)
	f.clock.Advance(5 * time.Second)
	f.clock.Advance(12 * time.Second)
	require.Equal(t, 18, f.supervisor.State().SecondsRemaining)

	// Execute
	f.bus.Publish(activity.SourceTap)

	// Assert
	state := f.supervisor.State()
	assert.Equal(t, inactivity.PhaseCountingDown, state.Phase)
	assert.Equal(t, 30, state.SecondsRemaining)
	assert.True(t, state.Visible)
}

// TestSupervisor_ActivityWhileDormantRestartsDelay tests that silence must be uninterrupted.
func TestSupervisor_ActivityWhileDormantRestartsDelay(t *testing.T) {
	f := newFixture(t)

	f.clock.Advance(4 * time.Second)
	f.bus.Publish(activity.SourceKeyboardShow)
	f.clock.Advance(4 * time.Second)

	assert.Equal(t, inactivity.PhaseDormant, f.supervisor.State().Phase)
	f.clock.Advance(1 * time.Second)
	assert.Equal(t, inactivity.PhaseCountingDown, f.supervisor.State().Phase)
}

// TestSupervisor_SubSecondActivityRestartsTick tests that silence is measured from the activity, not the last tick.
func TestSupervisor_SubSecondActivityRestartsTick(t *testing.T) {
	// Setup
	f := newFixture(t)
	f.clock.Advance(3900 * time.Millisecond)

	// Execute
	f.bus.Publish(activity.SourceTap)
	f.clock.Advance(4200 * time.Millisecond)

	// Assert
	assert.Equal(t, inactivity.PhaseDormant, f.supervisor.State().Phase)
	f.clock.Advance(799 * time.Millisecond)
	assert.Equal(t, inactivity.PhaseDormant, f.supervisor.State().Phase)
	f.clock.Advance(time.Millisecond)
	state := f.supervisor.State()
	assert.Equal(t, inactivity.PhaseCountingDown, state.Phase)
	assert.Equal(t, 30, state.SecondsRemaining)
}

// TestSupervisor_ResetKeepsFullFirstSecond tests that a reset countdown shows the full timeout for a whole second.
func TestSupervisor_ResetKeepsFullFirstSecond(t *testing.T) {
	// Setup
	f := newFixture(t)
	f.clock.Advance(10 * time.Second)
	f.clock.Advance(900 * time.Millisecond)
	require.Equal(t, 25, f.supervisor.State().SecondsRemaining)

	// Execute
	f.bus.Publish(activity.SourceTap)
	f.clock.Advance(999 * time.Millisecond)

	// Assert
	assert.Equal(t, 30, f.supervisor.State().SecondsRemaining)
	f.clock.Advance(time.Millisecond)
	assert.Equal(t, 29, f.supervisor.State().SecondsRemaining)
	assert.Equal(t, 1, f.clock.Pending())
}

// TestSupervisor_TimeoutNavigatesHomeOnce tests that reaching zero fires exactly once.
func TestSupervisor_TimeoutNavigatesHomeOnce(t *testing.T) {
	// Setup
	f := newFixture(t)

	// Execute
	f.clock.Advance(5 * time.Second)
	f.clock.Advance(29 * time.Second)
	assert.Zero(t, f.homeCalls)
	assert.True(t, f.supervisor.State().Urgent)
	f.clock.Advance(1 * time.Second)

	// Assert
	assert.Equal(t, 1, f.homeCalls)
	state := f.supervisor.State()
	assert.Equal(t, inactivity.PhaseDormant, state.Phase)
	assert.False(t, state.Visible)

	f.clock.Advance(2 * time.Second)
	assert.Equal(t, 1, f.homeCalls)
}

// TestSupervisor_DisabledRouteHaltsCountdown tests that disabled steps hide and cancel the countdown.
func TestSupervisor_DisabledRouteHaltsCountdown(t *testing.T) {
	// Setup
	f := newFixture(t)
	f.clock.Advance(10 * time.Second)
	require.Equal(t, inactivity.PhaseCountingDown, f.supervisor.State().Phase)

	// Execute
	f.supervisor.SetRoute(models.StepHome)
	f.clock.Advance(60 * time.Second)

	// Assert
	state := f.supervisor.State()
	assert.Equal(t, inactivity.PhaseDormant, state.Phase)
	assert.False(t, state.Visible)
	assert.True(t, state.Inert)
	assert.Zero(t, f.homeCalls)
}

// TestSupervisor_LeavingDisabledRouteRearms tests the restart of the Dormant cycle.
func TestSupervisor_LeavingDisabledRouteRearms(t *testing.T) {
	f := newFixture(t)
	f.supervisor.SetRoute(models.StepKioskAuth)
	f.clock.Advance(20 * time.Second)

	f.supervisor.SetRoute(models.StepCodeEntry)
	f.clock.Advance(4 * time.Second)
	assert.Equal(t, inactivity.PhaseDormant, f.supervisor.State().Phase)

	f.clock.Advance(1 * time.Second)
	state := f.supervisor.State()
	assert.Equal(t, inactivity.PhaseCountingDown, state.Phase)
	assert.Equal(t, 30, state.SecondsRemaining)
}

// TestSupervisor_OnChange tests that listeners receive countdown updates.
func TestSupervisor_OnChange(t *testing.T) {
	f := newFixture(t)
	var seen []int
	f.supervisor.OnChange(func(s inactivity.State) { seen = append(seen, s.SecondsRemaining) })

	f.clock.Advance(7 * time.Second)

	assert.Equal(t, []int{30, 29, 28}, seen)
}

// TestSupervisor_StartStop tests lifecycle errors.
func TestSupervisor_StartStop(t *testing.T) {
	s := inactivity.NewSupervisor(inactivity.Config{Timeout: 30, InitialDelay: 5}, nil,
		clock.NewManual(time.Unix(0, 0)), nil, zerolog.Nop())

	assert.EqualError(t, s.Stop(), "inactivity service is not running")
	assert.NoError(t, s.Start())
	assert.EqualError(t, s.Start(), "inactivity service is already running")
	assert.NoError(t, s.Stop())
}
