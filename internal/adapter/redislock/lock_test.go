package redislock

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return client, mr
}

func newTestLocker(client *redis.Client, ttl, wait time.Duration) *Locker {
	l := New(client, ttl, wait, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.poll = 5 * time.Millisecond
	return l
}

func TestLock_AcquireAndRelease(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := newTestLocker(client, time.Second, 50*time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "timer:user:U1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"timer:user:U1"))

	_, err = l.Lock(ctx, "timer:user:U1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := l.Lock(ctx, "timer:user:U2")
	require.NoError(t, err)
	other()

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"timer:user:U1"))

	again, err := l.Lock(ctx, "timer:user:U1")
	require.NoError(t, err)
	again()
}

func TestLock_ExpiredHolderDoesNotReleaseNewOwner(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := newTestLocker(client, time.Second, 50*time.Millisecond)
	ctx := context.Background()

	stale, err := l.Lock(ctx, "k")
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := l.Lock(ctx, "k")
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists(keyPrefix+"k"), "stale unlock must not free the new holder's lock")
	fresh()
	assert.False(t, mr.Exists(keyPrefix+"k"))
}

func TestLock_ContextCancelled(t *testing.T) {
	client, _ := setupTestRedis(t)
	l := newTestLocker(client, time.Second, time.Minute)

	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.Error(t, err)
}
