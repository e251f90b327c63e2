// Package storage defines the durable mapping the key-value store is built on.
//
// A Mapping is an opaque string-to-bytes table that survives process restarts.
// It knows nothing about namespaces, records, or expiry; those live in the
// domain package. Implementations live in subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested entry is missing.
var ErrNotFound = errors.New("entry not found")

// ErrClosed indicates the mapping was used after Close.
var ErrClosed = errors.New("mapping is closed")

// Mapping is a durable string-keyed payload table.
type Mapping interface {
	// Get returns the payload stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores payload under key, replacing any previous payload.
	Set(ctx context.Context, key string, payload []byte) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys enumerates every stored key in the mapping's native order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}

// Opener prepares a Mapping for use.
type Opener func(ctx context.Context) (Mapping, error)
