package service_registry_test

import (
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/clock"
	"github.com/benmeehan/kiosk-agent/internal/inactivity"
	"github.com/benmeehan/kiosk-agent/internal/mocks"
	"github.com/benmeehan/kiosk-agent/internal/service_registry"
	"github.com/benmeehan/kiosk-agent/internal/utils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestServiceRegistry_StartStop_Order tests that services start in order and stop in reverse.
func TestServiceRegistry_StartStop_Order(t *testing.T) {
	// Setup
	var order []string
	record := func(entry string) func(mock.Arguments) {
		return func(mock.Arguments) { order = append(order, entry) }
	}
	first, second := new(mocks.MockService), new(mocks.MockService)
	first.On("Start").Run(record("start first")).Return(nil)
	second.On("Start").Run(record("start second")).Return(nil)
	first.On("Stop").Run(record("stop first")).Return(nil)
	second.On("Stop").Run(record("stop second")).Return(nil)

	sr := service_registry.NewServiceRegistry(nil, zerolog.Nop())
	sr.RegisterService("first", first)
	sr.RegisterService("second", second)
	sr.RegisterService("first", second)

	// Execute
	require.NoError(t, sr.StartServices())
	require.NoError(t, sr.StopServices())

	// Assert
	assert.Equal(t, []string{"first", "second"}, sr.Services())
	assert.Equal(t, []string{"start first", "start second", "stop second", "stop first"}, order)
}

// TestServiceRegistry_StartServices_Rollback tests that a start failure stops the services already started.
func TestServiceRegistry_StartServices_Rollback(t *testing.T) {
	// Setup
	first, second, third := new(mocks.MockService), new(mocks.MockService), new(mocks.MockService)
	first.On("Start").Return(nil)
	first.On("Stop").Return(nil)
	second.On("Start").Return(errors.New("broker unreachable"))

	sr := service_registry.NewServiceRegistry(nil, zerolog.Nop())
	sr.RegisterService("first", first)
	sr.RegisterService("second", second)
	sr.RegisterService("third", third)

	// Execute
	err := sr.StartServices()

	// Assert
	assert.EqualError(t, err, "failed to start second: broker unreachable")
	first.AssertCalled(t, "Stop")
	second.AssertNotCalled(t, "Stop")
	third.AssertNotCalled(t, "Start")
}

// TestServiceRegistry_StopServices_JoinsErrors tests that every stop failure is reported.
func TestServiceRegistry_StopServices_JoinsErrors(t *testing.T) {
	first, second := new(mocks.MockService), new(mocks.MockService)
	first.On("Stop").Return(errors.New("first stuck"))
	second.On("Stop").Return(errors.New("second stuck"))

	sr := service_registry.NewServiceRegistry(nil, zerolog.Nop())
	sr.RegisterService("first", first)
	sr.RegisterService("second", second)

	err := sr.StopServices()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stop first: first stuck")
	assert.Contains(t, err.Error(), "failed to stop second: second stuck")
}

// TestServiceRegistry_RegisterServices tests the configured service set.
func TestServiceRegistry_RegisterServices(t *testing.T) {
	// Setup
	config := &utils.Config{}
	config.MQTT.TopicPrefix = "kiosk"
	config.Services.UIBridge.Enabled = true
	config.Services.Status.Enabled = true
	config.Services.Status.Interval = time.Minute

	supervisor := inactivity.NewSupervisor(inactivity.Config{Timeout: 30, InitialDelay: 5, WarningThreshold: 10},
		nil, clock.NewManual(time.Now()), func() {}, zerolog.Nop())
	parts := service_registry.Components{
		InstallationID: "install-1",
		Flow:           new(mocks.MockFlowDriver),
		Activity:       new(mocks.MockActivityPublisher),
		Admin:          new(mocks.MockAdminHandler),
		Identity:       new(mocks.MockIdentitySource),
		Supervisor:     supervisor,
	}
	sr := service_registry.NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	// Execute
	err := sr.RegisterServices(config, parts)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"inactivity", "ui_bridge", "status"}, sr.Services())
}

// TestServiceRegistry_RegisterServices_MissingComponent tests that an incomplete assembly is rejected.
func TestServiceRegistry_RegisterServices_MissingComponent(t *testing.T) {
	config := &utils.Config{}
	config.Services.Status.Enabled = true
	sr := service_registry.NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	err := sr.RegisterServices(config, service_registry.Components{InstallationID: "install-1"})

	assert.EqualError(t, err, "status service requires the identity and flow components")
	assert.Empty(t, sr.Services())
}
