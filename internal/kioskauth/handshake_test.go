package kioskauth_test

import (
	"context"
	"testing"

	"github.com/benmeehan/kiosk-agent/internal/gateway"
	"github.com/benmeehan/kiosk-agent/internal/kioskauth"
	"github.com/benmeehan/kiosk-agent/internal/mocks"
	"github.com/benmeehan/kiosk-agent/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/time/rate"
)

type fixedMAC string

func (f fixedMAC) MACAddress(context.Context) string { return string(f) }

func newHandshake(binder *mocks.MockGateway, limiter *rate.Limiter) (*kioskauth.Handshake, *kioskauth.Store) {
	store := kioskauth.NewStore(storage.NewMemoryStore(), zerolog.Nop())
	return kioskauth.NewHandshake(store, fixedMAC("02:AB:CD:EF:01:23"), binder, limiter, zerolog.Nop()), store
}

// TestHandshake_Authenticate tests a successful bind.
func TestHandshake_Authenticate(t *testing.T) {
	// Setup
	binder := new(mocks.MockGateway)
	binder.On("BindKioskMAC", mock.Anything, "BORNE-01", "02:AB:CD:EF:01:23").Return(nil)
	handshake, store := newHandshake(binder, nil)

	// Execute
	err := handshake.Authenticate(context.Background(), "  BORNE-01 ", "")

	// Assert
	assert.NoError(t, err)
	assert.True(t, handshake.IsAuthenticated())
	assert.Equal(t, "BORNE-01", store.Identity().KioskCode)
	assert.Equal(t, "02:AB:CD:EF:01:23", store.Identity().MACAddress)
	binder.AssertExpectations(t)
}

// TestHandshake_Refused tests that a refused bind leaves the kiosk unbound.
func TestHandshake_Refused(t *testing.T) {
	for _, refusal := range []error{gateway.ErrInvalidCode, gateway.ErrBadRequest, gateway.ErrServer} {
		t.Run(refusal.Error(), func(t *testing.T) {
			binder := new(mocks.MockGateway)
			binder.On("BindKioskMAC", mock.Anything, "BORNE-01", "02:00:00:00:00:09").Return(refusal)
			handshake, _ := newHandshake(binder, nil)

			err := handshake.Authenticate(context.Background(), "BORNE-01", "02:00:00:00:00:09")

			assert.ErrorIs(t, err, refusal)
			assert.False(t, handshake.IsAuthenticated())
		})
	}
}

// TestHandshake_ShortCode tests that short codes never reach the backend.
func TestHandshake_ShortCode(t *testing.T) {
	binder := new(mocks.MockGateway)
	handshake, _ := newHandshake(binder, nil)

	err := handshake.Authenticate(context.Background(), " ab ", "")

	assert.ErrorIs(t, err, kioskauth.ErrCodeTooShort)
	binder.AssertNotCalled(t, "BindKioskMAC", mock.Anything, mock.Anything, mock.Anything)
}

// TestHandshake_Throttled tests that an exhausted limiter aborts with the context.
func TestHandshake_Throttled(t *testing.T) {
	// Setup
	binder := new(mocks.MockGateway)
	binder.On("BindKioskMAC", mock.Anything, mock.Anything, mock.Anything).Return(gateway.ErrInvalidCode).Once()
	handshake, _ := newHandshake(binder, rate.NewLimiter(rate.Limit(0.001), 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Execute
	first := handshake.Authenticate(context.Background(), "BORNE-01", "")
	second := handshake.Authenticate(ctx, "BORNE-01", "")

	// Assert
	assert.ErrorIs(t, first, gateway.ErrInvalidCode)
	assert.Error(t, second)
	assert.NotErrorIs(t, second, gateway.ErrInvalidCode)
	binder.AssertNumberOfCalls(t, "BindKioskMAC", 1)
}
