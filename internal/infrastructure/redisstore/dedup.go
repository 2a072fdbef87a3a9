package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultDedupTTL = 24 * time.Hour

// Deduplicator remembers keys for a while. Claim succeeds once per key per
// TTL across every process sharing the redis.
type Deduplicator struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewDeduplicator(client redis.Cmdable, prefix string, ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}

	return &Deduplicator{client: client, prefix: prefix, ttl: ttl}
}

func (d *Deduplicator) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis.SetNX: %w", err)
	}

	return ok, nil
}
