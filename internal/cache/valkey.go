package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
)

const defaultValkeyTTL = 30 * time.Second

// setIfVersion writes KEYS[1] only while the version counter KEYS[2] still
// equals ARGV[1]. A missing counter is version 0.
var setIfVersion = valkey.NewLuaScript(`
local v = redis.call('GET', KEYS[2])
if not v then v = '0' end
if v ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// invalidate drops KEYS[1] and bumps the version counter KEYS[2].
var invalidate = valkey.NewLuaScript(`
redis.call('DEL', KEYS[1])
local v = redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
return v
`)

// ValkeyCache shares cached workspace views between server replicas.
// Versions are kept in Valkey, so a write on one replica discards fills in
// flight on every other replica.
type ValkeyCache struct {
	client valkey.Client
}

// valkeyKeys returns the data and version keys for key. The hash tag keeps
// both in one cluster slot so the scripts can touch them together.
func valkeyKeys(key string) (data, version string) {
	tag := "{" + key + "}"
	return tag, tag + ":v"
}

// NewValkeyCache connects to Valkey and verifies the connection with PING
func NewValkeyCache(addr string) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	slog.Info("Initialized Valkey workspace cache", "address", addr)
	return &ValkeyCache{client: client}, nil
}

// Get fetches key; a Valkey nil reply is a miss
func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, _ := valkeyKeys(key)
	value, err := c.client.Do(ctx, c.client.B().Get().Key(data).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("valkey GET %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value with a millisecond expiry
func (c *ValkeyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultValkeyTTL
	}

	data, _ := valkeyKeys(key)
	cmd := c.client.B().Set().Key(data).Value(valkey.BinaryString(value)).PxMilliseconds(ttl.Milliseconds()).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey SET %s: %w", key, err)
	}
	return nil
}

// Delete removes key
func (c *ValkeyCache) Delete(ctx context.Context, key string) error {
	data, _ := valkeyKeys(key)
	if err := c.client.Do(ctx, c.client.B().Del().Key(data).Build()).Error(); err != nil {
		return fmt.Errorf("valkey DEL %s: %w", key, err)
	}
	return nil
}

// Version reads the write version counter of key
func (c *ValkeyCache) Version(ctx context.Context, key string) (int64, error) {
	_, version := valkeyKeys(key)
	n, err := c.client.Do(ctx, c.client.B().Get().Key(version).Build()).AsInt64()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("valkey GET %s: %w", version, err)
	}
	return n, nil
}

// SetIfVersion stores value atomically unless key was invalidated since
// version was read
func (c *ValkeyCache) SetIfVersion(ctx context.Context, key string, version int64, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = defaultValkeyTTL
	}

	data, ver := valkeyKeys(key)
	stored, err := setIfVersion.Exec(ctx, c.client,
		[]string{data, ver},
		[]string{
			strconv.FormatInt(version, 10),
			valkey.BinaryString(value),
			strconv.FormatInt(ttl.Milliseconds(), 10),
		},
	).AsInt64()
	if err != nil {
		return false, fmt.Errorf("valkey conditional SET %s: %w", key, err)
	}
	return stored == 1, nil
}

// Invalidate deletes key and bumps its version counter
func (c *ValkeyCache) Invalidate(ctx context.Context, key string) error {
	data, ver := valkeyKeys(key)
	err := invalidate.Exec(ctx, c.client,
		[]string{data, ver},
		[]string{strconv.FormatInt(versionTTL.Milliseconds(), 10)},
	).Error()
	if err != nil {
		return fmt.Errorf("valkey invalidate %s: %w", key, err)
	}
	return nil
}

// Close closes the Valkey connection
func (c *ValkeyCache) Close() error {
	c.client.Close()
	return nil
}
