package storage

import (
	"strings"
	"sync"
)

// MemoryStore implements Store with an in-memory map. Used in tests and
// when running without a data directory; contents are lost on exit.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

// Get reads the value for key
func (s *MemoryStore) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Set writes the value for key
func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// Keys returns all stored keys with the given prefix
func (s *MemoryStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Clear removes every key with the given prefix
func (s *MemoryStore) Clear(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			delete(s.values, key)
		}
	}
	return nil
}
