package kioskauth

import (
	"errors"
	"fmt"

	"github.com/benmeehan/kiosk-agent/internal/models"
	"github.com/benmeehan/kiosk-agent/pkg/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Storage keys.
const (
	KeyAuthenticated  = "kiosk_authenticated"
	KeyCode           = "kiosk_code"
	KeyMAC            = "kiosk_mac"
	KeyInstallationID = "expo_installation_id"

	authenticatedValue = "true"
)

// Store persists the kiosk binding. It has no lock of its own: the
// binding is written by the auth handshake and the admin reset only, and
// readers rely on the flag being written last and removed first.
type Store struct {
	storage storage.SecureStorage
	logger  zerolog.Logger
}

// NewStore creates a Store over storage.
func NewStore(storage storage.SecureStorage, logger zerolog.Logger) *Store {
	return &Store{storage: storage, logger: logger}
}

// IsAuthenticated reports whether the kiosk is bound. Read failures count
// as not authenticated.
func (s *Store) IsAuthenticated() bool {
	value, ok, err := s.storage.GetItem(KeyAuthenticated)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read authentication flag")
		return false
	}
	return ok && value == authenticatedValue
}

// SetAuthenticated persists the binding. The flag is written after the
// code and MAC, so a reader never sees the flag without them.
func (s *Store) SetAuthenticated(code, mac string) error {
	if err := s.storage.SetItem(KeyCode, code); err != nil {
		return fmt.Errorf("failed to store kiosk code: %w", err)
	}
	if err := s.storage.SetItem(KeyMAC, mac); err != nil {
		return fmt.Errorf("failed to store kiosk mac: %w", err)
	}
	if err := s.storage.SetItem(KeyAuthenticated, authenticatedValue); err != nil {
		return fmt.Errorf("failed to store authentication flag: %w", err)
	}

	s.logger.Info().Str("code", code).Str("mac", mac).Msg("Kiosk authenticated")
	return nil
}

// Reset clears the binding. The flag goes first; resetting an unbound
// kiosk succeeds.
func (s *Store) Reset() error {
	if err := s.storage.RemoveItem(KeyAuthenticated); err != nil {
		return fmt.Errorf("failed to remove authentication flag: %w", err)
	}

	var errs []error
	for _, key := range []string{KeyCode, KeyMAC} {
		if err := s.storage.RemoveItem(key); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info().Msg("Kiosk authentication reset")
	return nil
}

// GetOrCreateInstallationID returns the persisted installation id,
// generating one on first use. If the id cannot be read or persisted a
// temporary id is returned together with the error.
func (s *Store) GetOrCreateInstallationID() (string, error) {
	id, ok, err := s.storage.GetItem(KeyInstallationID)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read installation id, using a temporary one")
		return uuid.NewString(), fmt.Errorf("failed to read installation id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}

	id = uuid.NewString()
	if err := s.storage.SetItem(KeyInstallationID, id); err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist installation id")
		return id, fmt.Errorf("failed to persist installation id: %w", err)
	}

	s.logger.Info().Str("installation_id", id).Msg("Generated installation id")
	return id, nil
}

// Identity returns the locally persisted binding.
func (s *Store) Identity() models.KioskIdentity {
	identity := models.KioskIdentity{Authenticated: s.IsAuthenticated()}
	identity.KioskCode = s.read(KeyCode)
	identity.MACAddress = s.read(KeyMAC)
	identity.InstallationID = s.read(KeyInstallationID)
	return identity
}

func (s *Store) read(key string) string {
	value, _, err := s.storage.GetItem(key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to read kiosk state")
		return ""
	}
	return value
}
