package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

// ResultCache replays predictions for byte-identical uploads.
// Key format: scan:<sha256-of-content>
type ResultCache struct {
	client *redis.Client
}

// NewResultCache creates a ResultCache wrapping the given Redis client.
func NewResultCache(client *redis.Client) *ResultCache {
	return &ResultCache{client: client}
}

// Get returns the cached result for this content hash, or nil on a miss.
func (c *ResultCache) Get(ctx context.Context, contentHash string) (*ports.CachedResult, error) {
	raw, err := c.client.Get(ctx, c.key(contentHash)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("result cache get: %w", err)
	}

	var res ports.CachedResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("result cache decode: %w", err)
	}
	return &res, nil
}

// Set records the prediction for this content hash (expires after ttl).
func (c *ResultCache) Set(ctx context.Context, contentHash string, res ports.CachedResult, ttl time.Duration) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("result cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(contentHash), raw, ttl).Err()
}

func (c *ResultCache) key(contentHash string) string {
	return "scan:" + contentHash
}
