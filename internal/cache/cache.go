// Package cache provides the short-lived read cache that sits in front of
// workspace lookups. The database stays the source of truth; entries are
// invalidated after every write.
//
// Readers fill the cache with SetIfVersion using the version they observed
// before reading the database. Writers call Invalidate after committing,
// which bumps the version, so a fill that started before the write is
// discarded instead of reinstating the old value.
package cache

import (
	"context"
	"fmt"
	"time"
)

// versionTTL bounds how long a write version is remembered. It must outlast
// any single read of the database.
const versionTTL = time.Hour

// Cache stores opaque values under string keys with a TTL.
type Cache interface {
	// Get returns the value and true on a hit, false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means the implementation default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Version returns the write version of key. A key that was never
	// invalidated, or whose version expired, is at version 0.
	Version(ctx context.Context, key string) (int64, error)

	// SetIfVersion stores value only while key is still at version and
	// reports whether it did.
	SetIfVersion(ctx context.Context, key string, version int64, value []byte, ttl time.Duration) (bool, error)

	// Invalidate removes key and bumps its version.
	Invalidate(ctx context.Context, key string) error

	// Close releases resources held by the cache
	Close() error
}

// New creates a cache of the configured type. "none" returns (nil, nil) and
// callers treat a nil Cache as disabled.
func New(kind, valkeyAddr string) (Cache, error) {
	switch kind {
	case "", "none":
		return nil, nil
	case "memory":
		return NewMemoryCache(), nil
	case "valkey":
		if valkeyAddr == "" {
			return nil, fmt.Errorf("valkey address is required when cache type is valkey")
		}
		vc, err := NewValkeyCache(valkeyAddr)
		if err != nil {
			return nil, err
		}
		return vc, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s (supported: none, memory, valkey)", kind)
	}
}
