package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Get when nothing is stored for a key.
var ErrCacheMiss = errors.New("search cache miss")

// Cache stores ranked provider ids per catalog version and query.
type Cache interface {
	Get(ctx context.Context, version uint64, q Query) ([]string, error)
	Set(ctx context.Context, version uint64, q Query, ids []string) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(version uint64, q Query) string {
	return fmt.Sprintf("search:v%d:%s", version, q.Key())
}

func (c *RedisCache) Get(ctx context.Context, version uint64, q Query) ([]string, error) {
	v, err := c.client.Get(ctx, c.key(version, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(v, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *RedisCache) Set(ctx context.Context, version uint64, q Query, ids []string) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(version, q), b, c.ttl).Err()
}
