package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces tenant cache keys in a shared Redis database.
const DefaultRedisPrefix = "tenant:host:"

// RedisCache shares resolved tenants between service instances.
// The client is owned by the caller; Close does not close it.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache creates a Redis-backed cache. Empty prefix uses DefaultRedisPrefix.
func NewRedisCache(client redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Get retrieves a tenant by host. Redis errors are treated as misses.
func (c *RedisCache) Get(ctx context.Context, host string) (*Tenant, bool) {
	data, err := c.client.Get(ctx, c.prefix+host).Bytes()
	if err != nil {
		return nil, false
	}

	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false
	}
	return &t, true
}

// Set stores a tenant for host with the given TTL.
func (c *RedisCache) Set(ctx context.Context, host string, tenant *Tenant, ttl time.Duration) {
	if tenant == nil {
		return
	}
	data, err := json.Marshal(tenant)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.prefix+host, data, ttl).Err()
}

// Delete removes a host from cache.
func (c *RedisCache) Delete(ctx context.Context, host string) {
	_ = c.client.Del(ctx, c.prefix+host).Err()
}

// Close is a no-op; the Redis client lifecycle belongs to the caller.
func (c *RedisCache) Close() error {
	return nil
}
