package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Karlivar21/Bakari-Backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const soupPlanCacheKey = "soupplan:current"

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context) (*domain.SoupPlan, error) {
	data, err := r.client.Get(ctx, soupPlanCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var plan domain.SoupPlan
	if err2 := json.Unmarshal(data, &plan); err2 != nil {
		return nil, fmt.Errorf("unmarshal soup plan failed: %w", err2)
	}

	return &plan, nil
}

func (r *RedisCache) Set(ctx context.Context, plan *domain.SoupPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal soup plan failed: %w", err)
	}

	// Jitter spreads expiry so refreshes don't line up
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, soupPlanCacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, soupPlanCacheKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
