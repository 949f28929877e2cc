package kioskauth_test

import (
	"errors"
	"testing"

	"github.com/benmeehan/kiosk-agent/internal/kioskauth"
	"github.com/benmeehan/kiosk-agent/internal/mocks"
	"github.com/benmeehan/kiosk-agent/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestStore_SetAndReset tests the authenticated lifecycle on a memory store.
func TestStore_SetAndReset(t *testing.T) {
	// Setup
	store := kioskauth.NewStore(storage.NewMemoryStore(), zerolog.Nop())
	require.False(t, store.IsAuthenticated())

	// Execute
	require.NoError(t, store.SetAuthenticated("BORNE-01", "02:AB:CD:EF:01:23"))

	// Assert
	assert.True(t, store.IsAuthenticated())
	identity := store.Identity()
	assert.True(t, identity.Authenticated)
	assert.Equal(t, "BORNE-01", identity.KioskCode)
	assert.Equal(t, "02:AB:CD:EF:01:23", identity.MACAddress)

	require.NoError(t, store.Reset())
	assert.False(t, store.IsAuthenticated())
	assert.Empty(t, store.Identity().KioskCode)

	// Resetting twice is a no-op success.
	assert.NoError(t, store.Reset())
}

// TestStore_WritesFlagLast tests the ordering of the binding writes.
func TestStore_WritesFlagLast(t *testing.T) {
	// Setup
	backing := new(mocks.MockSecureStorage)
	mock.InOrder(
		backing.On("SetItem", kioskauth.KeyCode, "BORNE-01").Return(nil).Once(),
		backing.On("SetItem", kioskauth.KeyMAC, "02:00:00:00:00:01").Return(nil).Once(),
		backing.On("SetItem", kioskauth.KeyAuthenticated, "true").Return(nil).Once(),
	)
	store := kioskauth.NewStore(backing, zerolog.Nop())

	// Execute
	err := store.SetAuthenticated("BORNE-01", "02:00:00:00:00:01")

	// Assert
	assert.NoError(t, err)
	backing.AssertExpectations(t)
}

// TestStore_FailedWriteLeavesFlagUnset tests that a failed MAC write never sets the flag.
func TestStore_FailedWriteLeavesFlagUnset(t *testing.T) {
	backing := new(mocks.MockSecureStorage)
	backing.On("SetItem", kioskauth.KeyCode, "BORNE-01").Return(nil)
	backing.On("SetItem", kioskauth.KeyMAC, mock.Anything).Return(errors.New("disk full"))
	store := kioskauth.NewStore(backing, zerolog.Nop())

	err := store.SetAuthenticated("BORNE-01", "02:00:00:00:00:01")

	assert.Error(t, err)
	backing.AssertNotCalled(t, "SetItem", kioskauth.KeyAuthenticated, mock.Anything)
}

// TestStore_ResetRemovesFlagFirst tests the ordering of the reset removals.
func TestStore_ResetRemovesFlagFirst(t *testing.T) {
	backing := new(mocks.MockSecureStorage)
	mock.InOrder(
		backing.On("RemoveItem", kioskauth.KeyAuthenticated).Return(nil).Once(),
		backing.On("RemoveItem", kioskauth.KeyCode).Return(nil).Once(),
		backing.On("RemoveItem", kioskauth.KeyMAC).Return(nil).Once(),
	)
	store := kioskauth.NewStore(backing, zerolog.Nop())

	assert.NoError(t, store.Reset())
	backing.AssertExpectations(t)
}

// TestStore_ReadFailureIsUnauthenticated tests fail-closed reads.
func TestStore_ReadFailureIsUnauthenticated(t *testing.T) {
	backing := new(mocks.MockSecureStorage)
	backing.On("GetItem", kioskauth.KeyAuthenticated).Return("", false, storage.ErrStoreClosed)
	store := kioskauth.NewStore(backing, zerolog.Nop())

	assert.False(t, store.IsAuthenticated())
}

// TestStore_UnexpectedFlagValue tests that only "true" counts as authenticated.
func TestStore_UnexpectedFlagValue(t *testing.T) {
	backing := storage.NewMemoryStore()
	require.NoError(t, backing.SetItem(kioskauth.KeyAuthenticated, "yes"))
	store := kioskauth.NewStore(backing, zerolog.Nop())

	assert.False(t, store.IsAuthenticated())
}

// TestStore_InstallationIDIsStable tests that the installation id is generated once.
func TestStore_InstallationIDIsStable(t *testing.T) {
	// Setup
	backing := storage.NewMemoryStore()
	store := kioskauth.NewStore(backing, zerolog.Nop())

	// Execute
	first, err := store.GetOrCreateInstallationID()
	require.NoError(t, err)
	second, err := kioskauth.NewStore(backing, zerolog.Nop()).GetOrCreateInstallationID()
	require.NoError(t, err)

	// Assert
	assert.Equal(t, first, second)
	_, err = uuid.Parse(first)
	assert.NoError(t, err)

	// A reset keeps the installation id.
	require.NoError(t, store.Reset())
	third, err := store.GetOrCreateInstallationID()
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

// TestStore_InstallationIDReadFailure tests the temporary id on a storage failure.
func TestStore_InstallationIDReadFailure(t *testing.T) {
	backing := new(mocks.MockSecureStorage)
	backing.On("GetItem", kioskauth.KeyInstallationID).Return("", false, errors.New("locked"))
	store := kioskauth.NewStore(backing, zerolog.Nop())

	id, err := store.GetOrCreateInstallationID()

	assert.Error(t, err)
	assert.NotEmpty(t, id)
	backing.AssertNotCalled(t, "SetItem", mock.Anything, mock.Anything)
}
