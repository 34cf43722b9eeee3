package question

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// Cache keeps matched question pools in Redis so repeated filters skip the
// database. Sampling still happens per request.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ PoolCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func poolKey(f Filter) string {
	return strings.Join([]string{
		"questionpool",
		strings.Join(f.Subjects, "|"),
		strings.Join(f.Chapters, "|"),
		strings.Join(f.Difficulties, "|"),
	}, ":")
}

func (c *Cache) Get(ctx context.Context, f Filter) ([]Question, bool, error) {
	data, err := c.client.Get(ctx, poolKey(f)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var pool []Question
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, false, err
	}
	return pool, true, nil
}

func (c *Cache) Set(ctx context.Context, f Filter, pool []Question) error {
	data, err := json.Marshal(pool)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, poolKey(f), data, c.ttl).Err()
}
