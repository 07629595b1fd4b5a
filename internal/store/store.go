// Package store provides the durable key/value storage that mirrors the
// client session between runs.
package store

import "context"

// Keys under which the session is persisted. Both are written on login and
// removed together on logout.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// Store is a small durable key/value map. Reads and writes of a single key
// are atomic.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes the given keys; missing keys are not an error.
	Remove(ctx context.Context, keys ...string) error

	Close() error
}
