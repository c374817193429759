package cache

import (
	"context"
	"sync/atomic"
)

// KeyValue is a durable string key-value store, such as a browser-style
// local storage exposed to the client.
type KeyValue interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Remover is implemented by KeyValue stores that can delete keys.
type Remover interface {
	Remove(key string)
}

// KVStore adapts a KeyValue to Store.
type KVStore struct {
	kv     KeyValue
	closed atomic.Bool
}

// NewKVStore wraps kv.
func NewKVStore(kv KeyValue) *KVStore {
	return &KVStore{kv: kv}
}

// Load returns the stored string as bytes.
func (s *KVStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	value, ok := s.kv.Get(key)
	if !ok {
		return nil, nil
	}
	return []byte(value), nil
}

// Save stores value as a string.
func (s *KVStore) Save(ctx context.Context, key string, value []byte) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	s.kv.Set(key, string(value))
	return nil
}

// Delete removes key when the underlying store supports it.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if r, ok := s.kv.(Remover); ok {
		r.Remove(key)
	}
	return nil
}

// Close marks the store closed.
func (s *KVStore) Close() error {
	s.closed.Store(true)
	return nil
}
