package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/genchadt/damnsimple-blackjack/pkg/storage"
)

// Store implements storage.Store backed by a single JSON file. The full
// key/value map is held in memory and written through on every mutation,
// matching the write-through persistence model of the game engine.
type Store struct {
	path    string
	mu      sync.RWMutex
	values  map[string]string
	options *storage.Options
}

// New creates a new file store instance, loading any existing contents
func New(options *storage.Options) (*Store, error) {
	if options == nil {
		options = storage.NewOptions()
	}

	s := &Store{
		path:    options.Path,
		values:  make(map[string]string),
		options: options,
	}

	if err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}

	return s, nil
}

// Get reads the value for key
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return "", storage.ErrKeyNotFound
	}
	return value, nil
}

// Set writes the value for key
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.save()
}

// Delete removes key
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return s.save()
}

// Keys returns all stored keys with the given prefix
func (s *Store) Keys(prefix string) ([]string, error) {
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
func (s *Store) Clear(prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.values {
		if strings.HasPrefix(key, prefix) {
			delete(s.values, key)
		}
	}
	return s.save()
}

// load reads the store file into memory. A missing file is treated as
// an empty store; a corrupt file is an error so the caller can decide
// whether to start fresh.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error reading store file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		return fmt.Errorf("error parsing store file: %w", err)
	}
	return nil
}

// save writes the store to a temp file and renames it into place so a
// crash mid-write never leaves a truncated store.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating store directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing store file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("error replacing store file: %w", err)
	}
	return nil
}
