package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so that a retried checkout or
// refund is not applied twice.
type IdempotencyStore interface {
	// MarkProcessed reserves key for ttl.
	// Returns true if the key was newly reserved, false if it already exists.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether key is currently reserved
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a reservation so the caller may retry after a failure
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
