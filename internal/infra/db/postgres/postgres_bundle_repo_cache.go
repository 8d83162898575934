package postgres

import (
	"context"
	"encoding/json"
	"time"

	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/metrics"
	red "subsavvy/internal/infra/redis"
)

var _ repository.BundleRepository = (*bundleRepoCacheDecorator)(nil)

const activeBundlesKey = "bundles:active"

// bundleRepoCacheDecorator caches the active bundle list, which every match
// request reads and only admins write.
type bundleRepoCacheDecorator struct {
	inner repository.BundleRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewBundleRepoCacheDecorator(inner repository.BundleRepository, cache red.RedisClient, ttl time.Duration) repository.BundleRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &bundleRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *bundleRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, b *model.Bundle) error {
	if err := d.inner.Save(ctx, tx, b); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, activeBundlesKey)
	return nil
}

func (d *bundleRepoCacheDecorator) Deactivate(ctx context.Context, tx repository.Tx, id string) error {
	if err := d.inner.Deactivate(ctx, tx, id); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, activeBundlesKey)
	return nil
}

func (d *bundleRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error) {
	val, err := d.cache.Get(ctx, activeBundlesKey)
	if err == nil {
		var bundles []*model.Bundle
		if json.Unmarshal([]byte(val), &bundles) == nil {
			metrics.ObserveCache("bundles", true)
			return bundles, nil
		}
	} else if !red.IsNil(err) {
		metrics.IncCacheError("bundles")
	}

	metrics.ObserveCache("bundles", false)
	bundles, err := d.inner.ListActive(ctx, tx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(bundles); err == nil {
		_ = d.cache.Set(ctx, activeBundlesKey, b, d.ttl)
	}
	return bundles, nil
}

func (d *bundleRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Bundle, error) {
	return d.inner.FindByID(ctx, tx, id)
}

func (d *bundleRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error) {
	return d.inner.ListAll(ctx, tx)
}
