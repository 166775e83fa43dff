package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
)

const keyPrefix = "related:"

// RelatedCache stores ranked related-content lists in Redis. Each source item
// owns one hash keyed by limit, so invalidation is a single DEL.
type RelatedCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRelatedCache(client *redis.Client, ttl time.Duration) *RelatedCache {
	return &RelatedCache{client: client, ttl: ttl}
}

func key(ref domain.ContentRef) string {
	return keyPrefix + string(ref.ContentType) + ":" + ref.ContentID
}

// Get returns the cached list for ref and limit. A miss is not an error.
func (c *RelatedCache) Get(ctx context.Context, ref domain.ContentRef, limit int) ([]domain.CatalogItem, bool, error) {
	data, err := c.client.HGet(ctx, key(ref), strconv.Itoa(limit)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis hget related: %w", err)
	}

	var items []domain.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("unmarshal related: %w", err)
	}
	return items, true, nil
}

// Set stores a list and refreshes the hash TTL.
func (c *RelatedCache) Set(ctx context.Context, ref domain.ContentRef, limit int, items []domain.CatalogItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal related: %w", err)
	}

	k := key(ref)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, k, strconv.Itoa(limit), data)
	pipe.Expire(ctx, k, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set related: %w", err)
	}
	return nil
}

// Invalidate drops every cached list for ref.
func (c *RelatedCache) Invalidate(ctx context.Context, ref domain.ContentRef) error {
	if err := c.client.Del(ctx, key(ref)).Err(); err != nil {
		return fmt.Errorf("redis del related: %w", err)
	}
	return nil
}
