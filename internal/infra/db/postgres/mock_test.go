//go:build !integration

package postgres

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/repository"
	red "gymdesk/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerPlanRepo mocks the database repository that the plan decorator wraps.
type mockInnerPlanRepo struct {
	SaveFunc       func(ctx context.Context, tx repository.Tx, plan *model.Plan) error
	DeactivateFunc func(ctx context.Context, tx repository.Tx, gymID, id string) error
	FindByIDFunc   func(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Plan, error)
	ListActiveFunc func(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Plan, error)
}

func (m *mockInnerPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	return m.SaveFunc(ctx, tx, plan)
}
func (m *mockInnerPlanRepo) Deactivate(ctx context.Context, tx repository.Tx, gymID, id string) error {
	return m.DeactivateFunc(ctx, tx, gymID, id)
}
func (m *mockInnerPlanRepo) FindByID(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Plan, error) {
	return m.FindByIDFunc(ctx, tx, gymID, id)
}
func (m *mockInnerPlanRepo) ListActive(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Plan, error) {
	return m.ListActiveFunc(ctx, tx, gymID)
}

type mockInnerOptionRepo struct {
	SaveFunc       func(ctx context.Context, tx repository.Tx, o *model.Option) error
	ListActiveFunc func(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Option, error)
}

func (m *mockInnerOptionRepo) Save(ctx context.Context, tx repository.Tx, o *model.Option) error {
	return m.SaveFunc(ctx, tx, o)
}
func (m *mockInnerOptionRepo) FindByIDs(ctx context.Context, tx repository.Tx, gymID string, ids []string) ([]*model.Option, error) {
	return nil, nil
}
func (m *mockInnerOptionRepo) ListActive(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Option, error) {
	return m.ListActiveFunc(ctx, tx, gymID)
}
func (m *mockInnerOptionRepo) Deactivate(ctx context.Context, tx repository.Tx, gymID, id string) error {
	return nil
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs behave like
// an empty cache.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", redis.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}

func (m *mockRedisClient) Ping(ctx context.Context) error                                { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error)           { return 0, nil }
func (m *mockRedisClient) Expire(ctx context.Context, key string, _ time.Duration) error { return nil }
func (m *mockRedisClient) Close() error                                                  { return nil }
