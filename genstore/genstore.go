// Package genstore keeps a monotonically increasing generation per store key.
// The cache bumps a key's generation whenever a write or eviction for it is
// enqueued and records the value on the entry; consumers skip entries whose
// generation is no longer current, so the last producer call per key wins
// across the write and eviction queues.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use LocalGenStore for a single process, or RedisGenStore when several
// processes produce into the same keyspace.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
