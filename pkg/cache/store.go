package cache

import (
	"context"
	"errors"
)

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("cache: store is closed")

// Store is a cache persistence backend.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load retrieves the value stored under key.
	// Returns (nil, nil) if nothing is stored.
	// Returns (nil, err) on backend errors.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save stores value under key, overwriting any previous value.
	Save(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}
