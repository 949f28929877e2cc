package services_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/flow"
	"github.com/benmeehan/kiosk-agent/internal/mocks"
	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/benmeehan/kiosk-agent/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestStatusService_Start_Success tests the successful start of the StatusService.
func TestStatusService_Start_Success(t *testing.T) {
	// Setup
	identity := new(mocks.MockIdentitySource)
	screens := new(mocks.MockFlowDriver)
	client := new(mocks.MockMQTTClient)

	s := services.NewStatusService("kiosk/install-1/status", time.Hour, 1, identity, screens, nil, client, zerolog.Nop())

	// Execute
	err := s.Start()

	// Assert
	assert.NoError(t, err)

	err = s.Start()
	assert.Error(t, err)
	assert.Equal(t, "status service is already running", err.Error())

	// Cleanup
	err = s.Stop()
	assert.NoError(t, err)
}

// TestStatusService_Stop_NotRunning tests stopping a service that never started.
func TestStatusService_Stop_NotRunning(t *testing.T) {
	s := services.NewStatusService("kiosk/install-1/status", time.Hour, 1, nil, nil, nil, nil, zerolog.Nop())

	err := s.Stop()

	assert.Error(t, err)
	assert.Equal(t, "status service is not running", err.Error())
}

// TestStatusService_PublishesReport tests that a status report is published on every tick.
func TestStatusService_PublishesReport(t *testing.T) {
	// Setup
	identity := new(mocks.MockIdentitySource)
	screens := new(mocks.MockFlowDriver)
	client := new(mocks.MockMQTTClient)
	metrics := new(mocks.MockHostMetrics)
	token := new(mocks.MockToken)
	published := make(chan []byte, 8)

	identity.On("Identity").Return(models.KioskIdentity{
		Authenticated:  true,
		KioskCode:      "BORNE01",
		MACAddress:     "02:AB:CD:EF:01:23",
		InstallationID: "install-1",
	})
	screens.On("Current").Return(flow.Screen{Step: models.StepCodeEntry})
	metrics.On("Collect", mock.Anything).Return(map[string]models.MetricSample{
		"disk": {Value: 5e9, Unit: "bytes"},
	})
	token.On("Wait").Return(true)
	token.On("Error").Return(nil)
	client.On("Publish", "kiosk/install-1/status", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) { published <- args.Get(3).([]byte) }).
		Return(token)

	s := services.NewStatusService("kiosk/install-1/status", 10*time.Millisecond, 1, identity, screens, metrics, client, zerolog.Nop())

	// Execute
	require.NoError(t, s.Start())
	var payload []byte
	select {
	case payload = <-published:
	case <-time.After(time.Second):
		t.Fatal("no status report published")
	}
	require.NoError(t, s.Stop())

	// Assert
	var report models.StatusReport
	require.NoError(t, json.Unmarshal(payload, &report))
	assert.Equal(t, "install-1", report.InstallationID)
	assert.Equal(t, "BORNE01", report.KioskCode)
	assert.True(t, report.Authenticated)
	assert.Equal(t, models.StepCodeEntry, report.Step)
	assert.Equal(t, models.MetricSample{Value: 5e9, Unit: "bytes"}, report.Host["disk"])
	assert.False(t, report.Timestamp.IsZero())
}
