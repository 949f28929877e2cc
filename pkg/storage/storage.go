package storage

import "errors"

// ErrStoreClosed is returned by operations on a store whose backing file
// could not be loaded.
var ErrStoreClosed = errors.New("secure storage is not loaded")

// SecureStorage is a scoped durable key-value store of string values.
// Writes are single-key; callers needing multi-key consistency order
// their writes.
type SecureStorage interface {
	// GetItem returns the value and whether the key exists.
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(key string) error
}
