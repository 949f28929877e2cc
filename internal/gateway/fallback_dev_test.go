//go:build kioskdev

package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benmeehan/kiosk-agent/internal/gateway"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFallback_TransportFailureUsesTable tests the development table on an unreachable backend.
func TestFallback_TransportFailureUsesTable(t *testing.T) {
	// Setup
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client := gateway.NewClient(gateway.Config{BaseURL: url, Timeout: time.Second}, zerolog.Nop())

	// Execute
	valid, err := client.ValidateCode(context.Background(), "141610")
	unknown, unknownErr := client.ValidateCode(context.Background(), "000000")
	patient, lookupErr := client.LookupAppointment(context.Background(), "141610")

	// Assert
	assert.True(t, gateway.FallbackEnabled)
	assert.NoError(t, err)
	assert.True(t, valid)
	assert.NoError(t, unknownErr)
	assert.False(t, unknown)
	require.NoError(t, lookupErr)
	assert.Equal(t, "Juline BOUGAULT", patient.FullName)
	assert.Equal(t, "30.00", patient.RemainingDue())
}

// TestFallback_NotFoundIsNeverDowngraded tests that a real 404 bypasses the table.
func TestFallback_NotFoundIsNeverDowngraded(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	client := gateway.NewClient(gateway.Config{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())

	valid, err := client.ValidateCode(context.Background(), "141610")
	_, lookupErr := client.LookupAppointment(context.Background(), "141610")

	assert.NoError(t, err)
	assert.False(t, valid)
	assert.ErrorIs(t, lookupErr, gateway.ErrNotFound)
}
