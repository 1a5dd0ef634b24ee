package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewFromRedis(rdb), mr
}

func TestLockIsExclusive(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	ok, err := c.AcquireLock(ctx, "checkout:1", "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireLock(ctx, "checkout:1", "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseLockChecksOwner(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	_, err := c.AcquireLock(ctx, "checkout:1", "owner-a", time.Minute)
	require.NoError(t, err)

	require.NoError(t, c.ReleaseLock(ctx, "checkout:1", "owner-b"))
	assert.True(t, mr.Exists("lock:checkout:1"))

	require.NoError(t, c.ReleaseLock(ctx, "checkout:1", "owner-a"))
	assert.False(t, mr.Exists("lock:checkout:1"))
}

func TestLockExpires(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	_, err := c.AcquireLock(ctx, "checkout:1", "owner-a", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	ok, err := c.AcquireLock(ctx, "checkout:1", "owner-b", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllowFixedWindow(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := c.Allow(ctx, "login:ana@example.com", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}

	ok, err := c.Allow(ctx, "login:ana@example.com", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(time.Minute + time.Second)

	ok, err = c.Allow(ctx, "login:ana@example.com", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
