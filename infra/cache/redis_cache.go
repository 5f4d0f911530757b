package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/amirasaad/spendsense/pkg/cache"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/redis/go-redis/v9"
)

var _ cache.Store = (*RedisCache)(nil)

const resetScanCount = 100

// RedisCache implements cache.Store using Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisCache creates a RedisCache from cfg.URL and verifies the connection.
func NewRedisCache(ctx context.Context, cfg *config.Redis, logger *slog.Logger) (*RedisCache, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("redis url is not configured")
	}
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = cfg.WriteTimeout
	}

	c := NewRedisCacheWithOptions(opt, cfg.KeyPrefix, logger)
	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return c, nil
}

// NewRedisCacheWithOptions creates a new RedisCache
// from redis.Options.
func NewRedisCacheWithOptions(
	opt *redis.Options,
	prefix string,
	logger *slog.Logger,
) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(opt)
	return &RedisCache{client: client, prefix: prefix, logger: logger.With("component", "redis_cache")}
}

func (r *RedisCache) key(key string) string {
	return r.prefix + key
}

func (r *RedisCache) Get(key string) ([]byte, error) {
	ctx := context.Background()
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "key", key)
		return nil, nil // cache miss
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "key", key, "error", err)
		return nil, err
	}
	return val, nil
}

func (r *RedisCache) Set(key string, val []byte, exp time.Duration) error {
	ctx := context.Background()
	if exp < 0 {
		exp = 0
	}
	err := r.client.Set(ctx, r.key(key), val, exp).Err()
	if err != nil {
		r.logger.Error("Redis cache set error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache set", "key", key, "ttl", exp)
	return nil
}

func (r *RedisCache) Delete(key string) error {
	ctx := context.Background()
	err := r.client.Del(ctx, r.key(key)).Err()
	if err != nil {
		r.logger.Error("Redis cache delete error", "key", key, "error", err)
		return err
	}
	r.logger.Debug("Redis cache delete", "key", key)
	return nil
}

// Reset deletes every key under the cache prefix.
func (r *RedisCache) Reset() error {
	ctx := context.Background()
	iter := r.client.Scan(ctx, 0, r.prefix+"*", resetScanCount).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		r.logger.Error("Redis cache scan error", "prefix", r.prefix, "error", err)
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Redis cache reset error", "prefix", r.prefix, "error", err)
		return err
	}
	r.logger.Debug("Redis cache reset", "prefix", r.prefix, "keys", len(keys))
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
