package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"smartattend/internal/roster"
)

// Redis wraps the redis client used for the roster cache and health
// reporting.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

const rosterCacheKey = "smartattend:students"

// RosterCache keeps the students listing in redis for a short TTL so the
// listing endpoint doesn't hit the store on every poll. All methods are
// nil-safe; without redis the cache is simply a miss.
type RosterCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRosterCache creates a cache over an existing redis client.
func NewRosterCache(client *redis.Client, ttl time.Duration) *RosterCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RosterCache{client: client, ttl: ttl}
}

// Get returns the cached listing, or nil on miss or redis trouble.
func (c *RosterCache) Get(ctx context.Context) []roster.User {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, rosterCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var users []roster.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil
	}
	return users
}

// Set stores the listing; failures are ignored, the cache is best-effort.
func (c *RosterCache) Set(ctx context.Context, users []roster.User) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(users)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, rosterCacheKey, raw, c.ttl).Err()
}

// Invalidate drops the cached listing after a registration.
func (c *RosterCache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, rosterCacheKey).Err()
}
