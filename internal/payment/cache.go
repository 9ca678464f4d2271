package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryCacheKey = "payments:summary"

// summaryCache keeps the dashboard summary in Redis with a TTL. A nil
// client disables caching.
type summaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *summaryCache) get(ctx context.Context) (*Summary, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, summaryCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *summaryCache) set(ctx context.Context, s *Summary) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryCacheKey, data, c.ttl).Err()
}

// invalidate drops the cached summary. Failures are ignored; a stale entry
// expires with its TTL anyway.
func (c *summaryCache) invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, summaryCacheKey).Err()
}
