package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/repository"
	"gymdesk/internal/infra/metrics"
	red "gymdesk/internal/infra/redis"
)

var (
	_ repository.PlanRepository   = (*planRepoCacheDecorator)(nil)
	_ repository.OptionRepository = (*optionRepoCacheDecorator)(nil)
)

const defaultCatalogTTL = time.Hour

func planKey(gymID, id string) string { return fmt.Sprintf("plan:%s:%s", gymID, id) }
func plansKey(gymID string) string    { return fmt.Sprintf("plans:%s", gymID) }
func optionsKey(gymID string) string  { return fmt.Sprintf("options:%s", gymID) }

// cacheGet decodes key into v. It reports false on a miss, a Redis error
// or an undecodable value.
func cacheGet(ctx context.Context, cache red.RedisClient, name, key string, v interface{}) bool {
	val, err := cache.Get(ctx, key)
	switch {
	case err == redis.Nil:
		metrics.IncCacheRequest(name, "miss")
		return false
	case err != nil:
		metrics.IncCacheRequest(name, "error")
		return false
	}
	if json.Unmarshal([]byte(val), v) != nil {
		metrics.IncCacheRequest(name, "miss")
		return false
	}
	metrics.IncCacheRequest(name, "hit")
	return true
}

func cacheSet(ctx context.Context, cache red.RedisClient, key string, v interface{}, ttl time.Duration) {
	if b, err := json.Marshal(v); err == nil {
		_ = cache.Set(ctx, key, b, ttl)
	}
}

type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

// NewPlanRepoCacheDecorator caches plan reads made outside a transaction.
// Reads inside one always go to the database.
func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient, ttl time.Duration) repository.PlanRepository {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &planRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, gymID, id string) (*model.Plan, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, gymID, id)
	}
	key := planKey(gymID, id)
	var plan model.Plan
	if cacheGet(ctx, d.cache, "plan", key, &plan) {
		return &plan, nil
	}
	p, err := d.inner.FindByID(ctx, tx, gymID, id)
	if err != nil {
		return nil, err
	}
	cacheSet(ctx, d.cache, key, p, d.ttl)
	return p, nil
}

func (d *planRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Plan, error) {
	if tx != nil {
		return d.inner.ListActive(ctx, tx, gymID)
	}
	key := plansKey(gymID)
	var plans []*model.Plan
	if cacheGet(ctx, d.cache, "plan_list", key, &plans) {
		return plans, nil
	}
	plans, err := d.inner.ListActive(ctx, tx, gymID)
	if err != nil {
		return nil, err
	}
	cacheSet(ctx, d.cache, key, plans, d.ttl)
	return plans, nil
}

// For write operations, we must invalidate the cache.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	if err := d.inner.Save(ctx, tx, plan); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, planKey(plan.GymID, plan.ID), plansKey(plan.GymID))
	return nil
}

func (d *planRepoCacheDecorator) Deactivate(ctx context.Context, tx repository.Tx, gymID, id string) error {
	if err := d.inner.Deactivate(ctx, tx, gymID, id); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, planKey(gymID, id), plansKey(gymID))
	return nil
}

type optionRepoCacheDecorator struct {
	inner repository.OptionRepository
	cache red.RedisClient
	ttl   time.Duration
}

// NewOptionRepoCacheDecorator caches the active option list per gym.
// Lookups by id are not cached.
func NewOptionRepoCacheDecorator(inner repository.OptionRepository, cache red.RedisClient, ttl time.Duration) repository.OptionRepository {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &optionRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *optionRepoCacheDecorator) FindByIDs(ctx context.Context, tx repository.Tx, gymID string, ids []string) ([]*model.Option, error) {
	return d.inner.FindByIDs(ctx, tx, gymID, ids)
}

func (d *optionRepoCacheDecorator) ListActive(ctx context.Context, tx repository.Tx, gymID string) ([]*model.Option, error) {
	if tx != nil {
		return d.inner.ListActive(ctx, tx, gymID)
	}
	key := optionsKey(gymID)
	var opts []*model.Option
	if cacheGet(ctx, d.cache, "option_list", key, &opts) {
		return opts, nil
	}
	opts, err := d.inner.ListActive(ctx, tx, gymID)
	if err != nil {
		return nil, err
	}
	cacheSet(ctx, d.cache, key, opts, d.ttl)
	return opts, nil
}

func (d *optionRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, o *model.Option) error {
	if err := d.inner.Save(ctx, tx, o); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, optionsKey(o.GymID))
	return nil
}

func (d *optionRepoCacheDecorator) Deactivate(ctx context.Context, tx repository.Tx, gymID, id string) error {
	if err := d.inner.Deactivate(ctx, tx, gymID, id); err != nil {
		return err
	}
	_ = d.cache.Del(ctx, optionsKey(gymID))
	return nil
}
