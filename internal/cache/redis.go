package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hwocr/pkg/models"
)

const redisKeyPrefix = "hwocr:extract:"

// Redis is a Store backed by a redis server, for deployments where multiple
// pipeline instances should share one result cache. Eviction is delegated to
// the server via the entry TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a redis-backed store. A ttl of 0 stores entries without
// expiry.
func NewRedis(addr string, ttl time.Duration) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// NewRedisWithClient creates a redis-backed store over an existing client
// (for testing).
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get fetches and decodes the stored result for key.
func (r *Redis) Get(ctx context.Context, key string) (*models.ExtractionResult, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var result models.ExtractionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, true, nil
}

// Set encodes and stores a result under the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, result *models.ExtractionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the underlying redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
