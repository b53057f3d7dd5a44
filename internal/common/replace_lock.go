package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/logging"
)

// ErrLockHeld is returned when another full replacement holds the lock.
var ErrLockHeld = errors.New("roster replacement already in progress")

// RedisReplaceLock serializes full replacements across every instance that
// shares the Redis server.
type RedisReplaceLock struct {
	locker *redislock.Client
	key    string
	ttl    time.Duration
}

func NewRedisReplaceLock(client *redis.Client, ttl time.Duration) *RedisReplaceLock {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisReplaceLock{
		locker: redislock.New(client),
		key:    constants.ReplaceLockKey,
		ttl:    ttl,
	}
}

// Acquire waits briefly for the lock and returns its release func.
func (l *RedisReplaceLock) Acquire(ctx context.Context) (func(), error) {
	lock, err := l.locker.Obtain(ctx, l.key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(250*time.Millisecond), 20),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain replace lock: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled here.
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				logging.Warn("Failed to release replace lock", "key", l.key, "error", err)
			}
		})
	}, nil
}

// LocalReplaceLock is the single-instance fallback when Redis is disabled.
type LocalReplaceLock struct {
	slot chan struct{}
}

func NewLocalReplaceLock() *LocalReplaceLock {
	return &LocalReplaceLock{slot: make(chan struct{}, 1)}
}

func (l *LocalReplaceLock) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-l.slot })
	}, nil
}
