//go:build !integration

package postgres

import (
	"context"
	"time"

	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	red "subsavvy/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerBundleRepo mocks the database repository that the bundle decorator wraps.
type mockInnerBundleRepo struct {
	SaveFunc       func(ctx context.Context, tx repository.Tx, b *model.Bundle) error
	FindByIDFunc   func(ctx context.Context, tx repository.Tx, id string) (*model.Bundle, error)
	ListActiveFunc func(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error)
	ListAllFunc    func(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error)
	DeactivateFunc func(ctx context.Context, tx repository.Tx, id string) error
}

func (m *mockInnerBundleRepo) Save(ctx context.Context, tx repository.Tx, b *model.Bundle) error {
	return m.SaveFunc(ctx, tx, b)
}
func (m *mockInnerBundleRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Bundle, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerBundleRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error) {
	return m.ListActiveFunc(ctx, tx)
}
func (m *mockInnerBundleRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error) {
	return m.ListAllFunc(ctx, tx)
}
func (m *mockInnerBundleRepo) Deactivate(ctx context.Context, tx repository.Tx, id string) error {
	return m.DeactivateFunc(ctx, tx, id)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	GetDelFunc func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	IncrExFunc func(ctx context.Context, key string, expiration time.Duration) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) GetDel(ctx context.Context, key string) (string, error) {
	return m.GetDelFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) IncrExpire(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	return m.IncrExFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
