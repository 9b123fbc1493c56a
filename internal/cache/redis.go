package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/irlobby/internal/config"
)

type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return NewFromClient(redis.NewClient(opts), cfg.Redis.CountTTL)
}

// NewFromClient wraps an existing client; ttl <= 0 means one hour.
func NewFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{Client: client, TTL: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForParticipantCount generates Redis key for an activity's participant count
func (c *RedisCache) KeyForParticipantCount(activityID uint64) string {
	return fmt.Sprintf("activity:participants:%d", activityID)
}

func (c *RedisCache) SetParticipantCount(ctx context.Context, activityID uint64, count int64) error {
	// Always refresh TTL when updating
	return c.Client.Set(ctx, c.KeyForParticipantCount(activityID), count, c.TTL).Err()
}

// GetParticipantCount returns the cached count. ok is false on a cache miss.
func (c *RedisCache) GetParticipantCount(ctx context.Context, activityID uint64) (count int64, ok bool, err error) {
	key := c.KeyForParticipantCount(activityID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, c.TTL).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// incrIfPresent only touches keys that already exist so a miss keeps falling
// back to the database instead of starting from a partial count.
var incrIfPresent = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  local v = redis.call("INCRBY", KEYS[1], ARGV[1])
  redis.call("EXPIRE", KEYS[1], ARGV[2])
  return v
end
return nil
`)

// AdjustParticipantCount applies delta to a cached count if one is present.
func (c *RedisCache) AdjustParticipantCount(ctx context.Context, activityID uint64, delta int64) error {
	err := incrIfPresent.Run(ctx, c.Client,
		[]string{c.KeyForParticipantCount(activityID)},
		delta, int64(c.TTL/time.Second),
	).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
