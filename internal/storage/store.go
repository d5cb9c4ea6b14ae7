// Package storage provides the durable key-value stores the ledger persists to.
//
// Every store keeps opaque byte values under string keys and overwrites the
// whole value on each Set, mirroring browser local storage semantics.
package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key has never been written.
	ErrNotFound = errors.New("key not found")
	// ErrStoreFull is returned by Set when the value exceeds the store quota.
	ErrStoreFull = errors.New("store full")
	// ErrUnavailable is returned when the store has been closed or cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
	// ErrInvalidKey is returned for empty keys or keys unsafe for the backend.
	ErrInvalidKey = errors.New("invalid key")
)

// Store is a durable key-value store.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error
	// Close releases resources held by the store.
	Close() error
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	return nil
}
