package storage

import "errors"

// ErrKeyNotFound is returned when reading a key that has never been set.
var ErrKeyNotFound = errors.New("key not found")

//go:generate mockgen -source=$GOFILE -destination=mock/store.go -package=mock_storage

// Store is a durable string key/value store. It mirrors the contract of
// the browser's localStorage: string keys, string values, best-effort
// durability. Implementations must be safe for use from a single game
// instance; they are not required to support concurrent writers.
type Store interface {
	// Get reads the value for key, returning ErrKeyNotFound if absent.
	Get(key string) (string, error)

	// Set writes the value for key, creating or replacing it.
	Set(key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys returns all stored keys with the given prefix.
	Keys(prefix string) ([]string, error)

	// Clear removes every key with the given prefix.
	Clear(prefix string) error
}

// Options represents storage configuration options
type Options struct {
	Path string
}

// NewOptions creates a new Options with default values
func NewOptions() *Options {
	return &Options{
		Path: "blackjack.json",
	}
}
