package storage

import cmap "github.com/orcaman/concurrent-map/v2"

// MemoryStore is a process-lifetime SecureStorage, used when no durable
// backing is configured and in tests.
type MemoryStore struct {
	entries cmap.ConcurrentMap[string, string]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: cmap.New[string]()}
}

func (s *MemoryStore) GetItem(key string) (string, bool, error) {
	value, ok := s.entries.Get(key)
	return value, ok, nil
}

func (s *MemoryStore) SetItem(key, value string) error {
	s.entries.Set(key, value)
	return nil
}

func (s *MemoryStore) RemoveItem(key string) error {
	s.entries.Remove(key)
	return nil
}
