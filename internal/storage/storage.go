// Package storage provides the key-value backends the record store
// persists into.
//
// The store is constructed with a primary and a fallback Backend; both
// hold the entire serialized collection under a single fixed key. The
// sqlite backend is the primary namespace, the file backend is the
// simpler fallback mechanism, and the memory backend serves tests.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has never been written.
var ErrKeyNotFound = errors.New("storage: key not found")

// Backend is a key-value namespace. Implementations must make Set
// atomic: a reader never observes a partially written value.
type Backend interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Name identifies the backend in logs.
	Name() string
}
