package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultMemoryTTL = 30 * time.Second

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type memoryVersion struct {
	n         int64
	expiresAt time.Time
}

// MemoryCache is a process-local cache. Expired entries are dropped lazily on
// read and swept on write once the map grows past sweepThreshold. Versions
// live in this process only, so it suits a single server.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]memoryEntry
	versions map[string]memoryVersion
	now      func() time.Time
}

const sweepThreshold = 4096

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	slog.Info("Initialized in-memory workspace cache")
	return &MemoryCache{
		entries:  make(map[string]memoryEntry),
		versions: make(map[string]memoryVersion),
		now:      time.Now,
	}
}

// Get returns a copy of the cached value if present and unexpired
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

// Set stores a copy of value until ttl elapses
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store(key, value, ttl)
	return nil
}

// store must be called with mu held.
func (c *MemoryCache) store(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	now := c.now()
	c.sweep(now)
	c.entries[key] = memoryEntry{value: stored, expiresAt: now.Add(ttl)}
}

// sweep must be called with mu held.
func (c *MemoryCache) sweep(now time.Time) {
	if len(c.entries) >= sweepThreshold {
		for k, e := range c.entries {
			if !now.Before(e.expiresAt) {
				delete(c.entries, k)
			}
		}
	}
	if len(c.versions) >= sweepThreshold {
		for k, v := range c.versions {
			if !now.Before(v.expiresAt) {
				delete(c.versions, k)
			}
		}
	}
}

// version must be called with mu held.
func (c *MemoryCache) version(key string) int64 {
	v, ok := c.versions[key]
	if !ok || !c.now().Before(v.expiresAt) {
		return 0
	}
	return v.n
}

// Version returns the current write version of key
func (c *MemoryCache) Version(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version(key), nil
}

// SetIfVersion stores value unless key was invalidated since version was read
func (c *MemoryCache) SetIfVersion(ctx context.Context, key string, version int64, value []byte, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version(key) != version {
		return false, nil
	}
	c.store(key, value, ttl)
	return true, nil
}

// Invalidate drops key and bumps its version
func (c *MemoryCache) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)
	delete(c.entries, key)
	c.versions[key] = memoryVersion{n: c.version(key) + 1, expiresAt: now.Add(versionTTL)}
	return nil
}

// Delete removes key from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Close drops all entries
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.versions = make(map[string]memoryVersion)
	c.mu.Unlock()
	return nil
}
