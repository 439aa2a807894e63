package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValkeyKeys(t *testing.T) {
	data, version := valkeyKeys("codepad:ws:doc")
	assert.Equal(t, "{codepad:ws:doc}", data)
	assert.Equal(t, "{codepad:ws:doc}:v", version)
}

// newTestValkey connects to the server named by CODEPAD_TEST_VALKEY_ADDR and
// skips the test when it is unset.
func newTestValkey(t *testing.T) *ValkeyCache {
	t.Helper()

	addr := os.Getenv("CODEPAD_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("CODEPAD_TEST_VALKEY_ADDR not set")
	}

	c, err := NewValkeyCache(addr)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestValkeyCache_SetGetDelete(t *testing.T) {
	c := newTestValkey(t)
	ctx := context.Background()
	key := "codepad:test:" + t.Name()
	t.Cleanup(func() { c.Invalidate(context.Background(), key) })

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, []byte("v"), time.Minute))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, key))
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValkeyCache_SetIfVersion(t *testing.T) {
	c := newTestValkey(t)
	ctx := context.Background()
	key := "codepad:test:" + t.Name()

	before, err := c.Version(ctx, key)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, key))
	after, err := c.Version(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	stored, err := c.SetIfVersion(ctx, key, before, []byte("stale"), time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err = c.SetIfVersion(ctx, key, after, []byte("fresh"), time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("fresh"), got)

	require.NoError(t, c.Invalidate(ctx, key))
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
