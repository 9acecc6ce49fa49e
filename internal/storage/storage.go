// Package storage is the key-value persistence adapter behind the session
// and catalog stores. Values are serialized JSON documents; the adapter
// itself is format-agnostic and best-effort: callers keep their in-memory
// state authoritative when a write fails.
package storage

import (
	"context"
	"errors"
)

// Keys the stores persist under. No schema versioning.
const (
	KeyToken           = "token"
	KeyUser            = "user"
	KeyRegisteredUsers = "registeredUsers"
)

// ErrNotFound reports a missing key.
var ErrNotFound = errors.New("storage: key not found")

// Store is a synchronous key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
