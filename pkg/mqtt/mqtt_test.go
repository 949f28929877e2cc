package mqtt_test

import (
	"errors"
	"testing"

	"github.com/benmeehan/kiosk-agent/internal/mocks"
	"github.com/benmeehan/kiosk-agent/pkg/mqtt"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// TestInitialize_MissingCACertificate tests that an unreadable CA certificate aborts initialization.
func TestInitialize_MissingCACertificate(t *testing.T) {
	// Setup
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadFileRaw", "/etc/kiosk/ca.pem").Return(nil, errors.New("no such file"))
	service := mqtt.NewMqttService(fileClient, zerolog.Nop())

	// Execute
	err := service.Initialize("ssl://localhost:8883", "kiosk-test", "/etc/kiosk/ca.pem")

	// Assert
	assert.ErrorContains(t, err, "failed to read CA certificate")
	fileClient.AssertExpectations(t)
}

// TestInitialize_InvalidCACertificate tests that a CA file without certificates is rejected.
func TestInitialize_InvalidCACertificate(t *testing.T) {
	fileClient := new(mocks.MockFileOperations)
	fileClient.On("ReadFileRaw", "/etc/kiosk/ca.pem").Return([]byte("not a certificate"), nil)
	service := mqtt.NewMqttService(fileClient, zerolog.Nop())

	err := service.Initialize("ssl://localhost:8883", "kiosk-test", "/etc/kiosk/ca.pem")

	assert.EqualError(t, err, "failed to append CA certificate")
}
