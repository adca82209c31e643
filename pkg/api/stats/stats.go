package stats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/gopass/dashboard/pkg/transit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheKey = "gopass:dashboard:stats"

// Cache keeps the dashboard statistics in redis for a short while so every page load
// doesn't hit the backend aggregation. A nil Cache or one without a store always loads.
type Cache struct {
	Cache *cache.Cache[string]
	TTL   time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil || ttl <= 0 {
		return &Cache{}
	}

	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))

	return &Cache{
		Cache: cache.New[string](redisStore),
		TTL:   ttl,
	}
}

func (c *Cache) Get(ctx context.Context, load func(context.Context) (*transit.DashboardStats, error)) (*transit.DashboardStats, error) {
	if c == nil || c.Cache == nil {
		return load(ctx)
	}

	cachedValue, err := c.Cache.Get(ctx, cacheKey)
	if err == nil {
		var dashboardStats transit.DashboardStats
		if err := json.Unmarshal([]byte(cachedValue), &dashboardStats); err == nil {
			return &dashboardStats, nil
		}
	}

	dashboardStats, err := load(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(dashboardStats)
	if err != nil {
		return dashboardStats, nil
	}

	if err := c.Cache.Set(ctx, cacheKey, string(encoded)); err != nil {
		log.Error().Err(err).Msg("Failed to cache dashboard stats")
	}

	return dashboardStats, nil
}

// Invalidate drops the cached statistics so the next Get reloads them
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.Cache == nil {
		return
	}

	if err := c.Cache.Delete(ctx, cacheKey); err != nil {
		log.Debug().Err(err).Msg("Failed to invalidate dashboard stats")
	}
}
