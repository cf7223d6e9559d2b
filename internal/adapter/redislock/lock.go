package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "timebot:lock:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrLockTimeout is returned when the lock stays taken for longer than the wait limit.
var ErrLockTimeout = errors.New("redislock: timed out waiting for lock")

// Locker is a per-key lock shared by every bot instance pointing at the same Redis.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
	poll   time.Duration
	log    *slog.Logger
}

// New returns a Locker. ttl bounds how long a crashed holder can block others;
// wait bounds how long Lock retries before giving up.
func New(client *redis.Client, ttl, wait time.Duration, log *slog.Logger) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &Locker{client: client, ttl: ttl, wait: wait, poll: 25 * time.Millisecond, log: log}
}

// Lock acquires key, retrying until it is free, the wait limit passes, or ctx ends.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	k := keyPrefix + key
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redislock: acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.poll):
		}
	}
	l.log.Debug("lock acquired", slog.String("key", key))

	return func() {
		// Release on a fresh context so a cancelled request still frees the lock.
		c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(c, l.client, []string{k}, token).Err(); err != nil {
			l.log.Warn("lock release failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}, nil
}
