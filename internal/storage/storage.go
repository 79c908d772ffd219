// Package storage provides the local snapshot cache used to avoid re-running
// the expensive full-catalog fetch between audit sessions.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no entry exists for the key.
var ErrNotFound = errors.New("cache entry not found")

// Store is the cache collaborator contract. The runner is the only writer by
// construction, so implementations need no transactional guarantees.
type Store interface {
	// Get retrieves the content stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores content under key, replacing any previous entry.
	Put(ctx context.Context, key string, content []byte) error

	// Delete removes the entry under key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error
}
