package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/benmeehan/kiosk-agent/internal/mocks"
	"github.com/benmeehan/kiosk-agent/pkg/encryption"
	"github.com/benmeehan/kiosk-agent/pkg/file"
	"github.com/benmeehan/kiosk-agent/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFileStore(t *testing.T, dir string) *storage.FileStore {
	t.Helper()
	files := file.NewFileService()
	crypter := encryption.NewEncryptionManager(files)
	require.NoError(t, crypter.Initialize(filepath.Join(dir, "storage.key"), "kiosk"))

	store := storage.NewFileStore(filepath.Join(dir, "state.enc"), files, crypter, zerolog.Nop())
	require.NoError(t, store.Load())
	return store
}

// TestFileStore_PersistsAcrossReload tests that entries survive a new store instance.
func TestFileStore_PersistsAcrossReload(t *testing.T) {
	// Setup
	dir := t.TempDir()
	store := newFileStore(t, dir)

	// Execute
	require.NoError(t, store.SetItem("kiosk_code", "BORNE-01"))
	require.NoError(t, store.SetItem("kiosk_mac", "02:AB:CD:EF:01:23"))
	require.NoError(t, store.RemoveItem("kiosk_mac"))
	reloaded := newFileStore(t, dir)

	// Assert
	code, ok, err := reloaded.GetItem("kiosk_code")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "BORNE-01", code)

	_, ok, err = reloaded.GetItem("kiosk_mac")
	assert.NoError(t, err)
	assert.False(t, ok)
}

// TestFileStore_RemoveAbsentKey tests that removing a missing key is a no-op.
func TestFileStore_RemoveAbsentKey(t *testing.T) {
	store := newFileStore(t, t.TempDir())

	assert.NoError(t, store.RemoveItem("missing"))
}

// TestFileStore_NotLoaded tests that an unloaded store fails closed.
func TestFileStore_NotLoaded(t *testing.T) {
	// Setup
	store := storage.NewFileStore("unused", file.NewFileService(), encryption.NewEncryptionManager(file.NewFileService()), zerolog.Nop())

	// Execute
	_, ok, err := store.GetItem("kiosk_authenticated")

	// Assert
	assert.False(t, ok)
	assert.ErrorIs(t, err, storage.ErrStoreClosed)
}

// TestFileStore_WriteFailureRollsBack tests that a failed write leaves memory unchanged.
func TestFileStore_WriteFailureRollsBack(t *testing.T) {
	// Setup
	dir := t.TempDir()
	crypter := encryption.NewEncryptionManager(file.NewFileService())
	require.NoError(t, crypter.Initialize(filepath.Join(dir, "storage.key"), "kiosk"))

	mockFile := new(mocks.MockFileOperations)
	mockFile.On("IsFileExists", "state.enc").Return(false, nil)
	mockFile.On("WriteFileRaw", "state.enc", mock.Anything).Return(errors.New("disk full"))

	store := storage.NewFileStore("state.enc", mockFile, crypter, zerolog.Nop())
	require.NoError(t, store.Load())

	// Execute
	err := store.SetItem("kiosk_authenticated", "true")

	// Assert
	assert.Error(t, err)
	_, ok, _ := store.GetItem("kiosk_authenticated")
	assert.False(t, ok)
	mockFile.AssertExpectations(t)
}

// TestMemoryStore_Basic tests the in-memory store operations.
func TestMemoryStore_Basic(t *testing.T) {
	store := storage.NewMemoryStore()

	require.NoError(t, store.SetItem("k", "v"))
	value, ok, err := store.GetItem("k")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", value)

	require.NoError(t, store.RemoveItem("k"))
	require.NoError(t, store.RemoveItem("k"))
	_, ok, _ = store.GetItem("k")
	assert.False(t, ok)
}
