package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UnreadCountKeyPrefix = "notifications:unread:%d"
	AdminStatsKey        = "admin:stats"
)

const (
	UnreadCountTTL = 2 * time.Minute
	AdminStatsTTL  = 1 * time.Minute
)

// UnreadCountKey is the cache key for a user's unread notification count.
func UnreadCountKey(userID uint) string {
	return fmt.Sprintf(UnreadCountKeyPrefix, userID)
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	s, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// CacheAside tries Redis first; on a miss (or a Redis error) it calls fetch, which
// must populate dest, then stores dest with ttl on a best-effort basis.
func CacheAside(ctx context.Context, rdb *redis.Client, key string, dest any, ttl time.Duration, fetch func() error) error {
	if found, err := GetJSON(ctx, rdb, key, dest); err == nil && found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, rdb, key, dest, ttl)
	return nil
}

// Invalidate deletes keys, ignoring errors.
func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb == nil || len(keys) == 0 {
		return
	}
	rdb.Del(ctx, keys...)
}
