// Package memory provides an in-process mapping for ephemeral runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/louisbranch/kvmcp/internal/services/kv/storage"
)

// Store keeps entries in memory and enumerates keys in insertion order.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
	order   []string
	closed  bool
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[string][]byte)}
}

// Opener returns a storage.Opener that hands out the given store.
func Opener(store *Store) storage.Opener {
	return func(context.Context) (storage.Mapping, error) {
		return store, nil
	}
}

// Get returns a copy of the payload stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}
	payload, ok := s.entries[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), payload...), nil
}

// Set stores a copy of payload under key.
func (s *Store) Set(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = append([]byte{}, payload...)
	return nil
}

// Delete removes key if present.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	if _, ok := s.entries[key]; !ok {
		return nil
	}
	delete(s.entries, key)
	for i, existing := range s.order {
		if existing == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Keys lists keys in insertion order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}
	return append([]string{}, s.order...), nil
}

// Close marks the store closed. Entries are dropped.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.entries = nil
	s.order = nil
	return nil
}

var _ storage.Mapping = (*Store)(nil)
