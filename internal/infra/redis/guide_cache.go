package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/metrics"
)

var _ repository.GuideCache = (*GuideCache)(nil)

// GuideCache keeps generated cancellation guides keyed by folded service name.
type GuideCache struct {
	client RedisClient
}

func NewGuideCache(client RedisClient) *GuideCache {
	return &GuideCache{client: client}
}

func guideKey(service string) string {
	return "guide:" + strings.ToLower(strings.Join(strings.Fields(service), " "))
}

func (c *GuideCache) Get(ctx context.Context, service string) (*model.CancellationGuide, error) {
	data, err := c.client.Get(ctx, guideKey(service))
	if err != nil {
		if IsNil(err) {
			metrics.ObserveCache("guides", false)
			return nil, domain.ErrNotFound
		}
		metrics.IncCacheError("guides")
		return nil, err
	}

	var g model.CancellationGuide
	if err := json.Unmarshal([]byte(data), &g); err != nil {
		// corrupt entry, treat as a miss
		_ = c.client.Del(ctx, guideKey(service))
		metrics.ObserveCache("guides", false)
		return nil, domain.ErrNotFound
	}
	metrics.ObserveCache("guides", true)
	return &g, nil
}

func (c *GuideCache) Set(ctx context.Context, service string, g *model.CancellationGuide, ttl time.Duration) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, guideKey(service), data, ttl)
}
