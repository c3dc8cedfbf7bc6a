package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	// URL is a redis:// connection URL; it takes precedence over Addr
	URL      string
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisCache stores garment lists as JSON in Redis.
// Read and write failures degrade to cache misses and are logged.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg RedisConfig, logger zerolog.Logger) (*RedisCache, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]types.Garment, bool) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("cache get failed")
		return nil, false
	}

	var garments []types.Garment
	if err := json.Unmarshal(data, &garments); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("failed to unmarshal cached garments")
		return nil, false
	}
	return garments, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value []types.Garment, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("failed to marshal garments")
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, data, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("failed to cache garments")
	}
}

// Purge deletes every key under the cache prefix
func (r *RedisCache) Purge(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

// Len counts the keys under the cache prefix. It returns 0 on error.
func (r *RedisCache) Len() int {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		r.logger.Debug().Err(err).Msg("cache len scan failed")
		return 0
	}
	return n
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
