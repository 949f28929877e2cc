package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/benmeehan/kiosk-agent/pkg/encryption"
	"github.com/benmeehan/kiosk-agent/pkg/file"
	"github.com/rs/zerolog"
)

// FileStore keeps all entries of one scope in a single encrypted file.
// Every mutation rewrites the file atomically.
type FileStore struct {
	path       string
	fileClient file.FileOperations
	crypter    encryption.EncryptionManagerInterface
	logger     zerolog.Logger

	mu      sync.RWMutex
	entries map[string]string
	loaded  bool
}

// NewFileStore creates a FileStore backed by path.
func NewFileStore(path string, fileClient file.FileOperations, crypter encryption.EncryptionManagerInterface,
	logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:       path,
		fileClient: fileClient,
		crypter:    crypter,
		logger:     logger,
		entries:    make(map[string]string),
	}
}

// Load reads the backing file. A missing file yields an empty store.
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.fileClient.IsFileExists(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat store file: %w", err)
	}
	if !exists {
		s.logger.Info().Str("path", s.path).Msg("No store file found, starting empty")
		s.entries = make(map[string]string)
		s.loaded = true
		return nil
	}

	sealed, err := s.fileClient.ReadFileRaw(s.path)
	if err != nil {
		return fmt.Errorf("failed to read store file: %w", err)
	}

	plain, err := s.crypter.Decrypt(sealed)
	if err != nil {
		return fmt.Errorf("failed to decrypt store file: %w", err)
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(plain, &entries); err != nil {
		return fmt.Errorf("failed to decode store file: %w", err)
	}

	s.entries = entries
	s.loaded = true
	s.logger.Debug().Int("entries", len(entries)).Msg("Store loaded")
	return nil
}

// GetItem returns the value stored under key.
func (s *FileStore) GetItem(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return "", false, ErrStoreClosed
	}
	value, ok := s.entries[key]
	return value, ok, nil
}

// SetItem stores value under key and persists the store.
func (s *FileStore) SetItem(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrStoreClosed
	}

	previous, had := s.entries[key]
	s.entries[key] = value
	if err := s.persist(); err != nil {
		if had {
			s.entries[key] = previous
		} else {
			delete(s.entries, key)
		}
		return err
	}
	return nil
}

// RemoveItem deletes key and persists the store.
func (s *FileStore) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		return ErrStoreClosed
	}

	previous, had := s.entries[key]
	if !had {
		return nil
	}
	delete(s.entries, key)
	if err := s.persist(); err != nil {
		s.entries[key] = previous
		return err
	}
	return nil
}

// persist must be called with mu held.
func (s *FileStore) persist() error {
	plain, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	sealed, err := s.crypter.Encrypt(plain)
	if err != nil {
		return fmt.Errorf("failed to encrypt store: %w", err)
	}

	if err := s.fileClient.WriteFileRaw(s.path, sealed); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	return nil
}
