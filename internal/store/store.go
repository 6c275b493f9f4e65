// Package store provides the volatile session store: session ID to engine
// snapshot with sliding expiration.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session is absent or has expired. The two
// cases are indistinguishable; there are no tombstones.
var ErrNotFound = errors.New("session not found")

// Store persists engine snapshots keyed by session ID. Every Put resets the
// TTL countdown, so only genuinely idle sessions expire.
type Store interface {
	// Put writes a snapshot and resets its TTL.
	Put(ctx context.Context, id string, snapshot []byte, ttl time.Duration) error

	// Get retrieves a snapshot. Returns ErrNotFound when the session is
	// absent or expired.
	Get(ctx context.Context, id string) ([]byte, error)

	// Delete removes a session. Deleting an absent session is not an error.
	Delete(ctx context.Context, id string) error

	// LiveIDs enumerates currently live session IDs. Best-effort: it may
	// race with concurrent expirations and is intended for monitoring only.
	LiveIDs(ctx context.Context) ([]string, error)

	// Close releases store resources.
	Close() error
}
