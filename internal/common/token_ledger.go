package common

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"infinite-experiment/poolroster/internal/constants"
)

// RedisTokenLedger records consumed admin tokens in Redis so a token used
// on one instance is rejected by every other.
type RedisTokenLedger struct {
	redis *redis.Client
}

func NewRedisTokenLedger(client *redis.Client) *RedisTokenLedger {
	return &RedisTokenLedger{redis: client}
}

// Consume marks the token id as used until the token would have expired
// anyway. It reports false when the id was already consumed.
func (l *RedisTokenLedger) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := l.redis.SetNX(ctx, constants.UsedAdminTokenPrefix+tokenID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark token as used: %w", err)
	}
	return ok, nil
}

func (l *RedisTokenLedger) IsUsed(ctx context.Context, tokenID string) (bool, error) {
	result, err := l.redis.Get(ctx, constants.UsedAdminTokenPrefix+tokenID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token usage: %w", err)
	}
	return result == "1", nil
}

// MemoryTokenLedger is the in-process ledger used without Redis.
type MemoryTokenLedger struct {
	cache *cache.Cache
}

func NewMemoryTokenLedger() *MemoryTokenLedger {
	return &MemoryTokenLedger{cache: cache.New(15*time.Minute, 5*time.Minute)}
}

func (l *MemoryTokenLedger) Consume(_ context.Context, tokenID string, ttl time.Duration) (bool, error) {
	// Add fails when the key is already present.
	return l.cache.Add(tokenID, true, ttl) == nil, nil
}

func (l *MemoryTokenLedger) IsUsed(_ context.Context, tokenID string) (bool, error) {
	_, found := l.cache.Get(tokenID)
	return found, nil
}
