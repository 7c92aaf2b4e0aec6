package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hendrik2009/hearo-backend/internal/app/model"
	"github.com/hendrik2009/hearo-backend/pkg/redis"
)

// redisBindingCache caches resolved bindings in redis. Every failure
// degrades to a miss so the database remains authoritative.
type redisBindingCache struct {
	ttl time.Duration
}

// NewRedisBindingCache creates a redis-backed BindingCache. The redis
// client must have been initialized via pkg/redis.Init.
func NewRedisBindingCache(ttl time.Duration) BindingCache {
	return &redisBindingCache{ttl: ttl}
}

func (c *redisBindingCache) Get(ctx context.Context, uid string) (*model.TagBinding, bool) {
	payload, ok, err := redis.GetCachedBinding(ctx, uid)
	if err != nil || !ok {
		return nil, false
	}

	var binding model.TagBinding
	if err := json.Unmarshal(payload, &binding); err != nil {
		// Stale or corrupt entry, drop it.
		redis.InvalidateBinding(ctx, uid)
		return nil, false
	}
	return &binding, true
}

func (c *redisBindingCache) Set(ctx context.Context, binding *model.TagBinding) {
	payload, err := json.Marshal(binding)
	if err != nil {
		return
	}
	redis.CacheBinding(ctx, binding.UID, payload, c.ttl)
}

func (c *redisBindingCache) Invalidate(ctx context.Context, uid string) {
	redis.InvalidateBinding(ctx, uid)
}
