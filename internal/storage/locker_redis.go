package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/du-phan/resilio/internal/xslog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

//go:embed unlock.lua
var unlockLua string

var unlockScript = redis.NewScript(unlockLua)

const (
	lockKeyPrefix = "resilio:lock:athlete:"

	lockRetryInterval = 50 * time.Millisecond
)

var _ Locker = (*RedisLocker)(nil)

// RedisLocker holds a per-athlete lease with SET NX so that only one process
// rewrites a series at a time. The lease expires after ttl if its holder dies.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, athleteID string) (func(), error) {
	key := lockKeyPrefix + athleteID
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.TryLock(ctx, key, token)
		if err != nil {
			return nil, err
		}
		if ok {
			return l.release(ctx, key, token), nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockHeld, ctx.Err())
		}
	}
}

func (l *RedisLocker) TryLock(ctx context.Context, key, token string) (bool, error) {
	err := l.client.SetArgs(ctx, key, token, redis.SetArgs{Mode: "NX", TTL: l.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return true, nil
}

func (l *RedisLocker) release(ctx context.Context, key, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
				xslog.FromContext(ctx).WarnContext(ctx, "failed to release athlete lock", xslog.Error(err))
			}
		})
	}
}
