package tenant

import (
	"context"
	"sync"
	"time"
)

// Cache keeps resolved tenants keyed by normalized host name.
// Misses are never cached, so a freshly provisioned domain resolves immediately.
type Cache interface {
	Get(ctx context.Context, host string) (*Tenant, bool)
	Set(ctx context.Context, host string, tenant *Tenant, ttl time.Duration)
	Delete(ctx context.Context, host string)
	Close() error
}

// DefaultCacheSize bounds the number of hosts kept by NewInMemoryCache.
const DefaultCacheSize = 1000

// hostCache is a process-local cache. Deletes made by other processes never
// reach it, so entries are only as fresh as their TTL.
type hostCache struct {
	mu      sync.Mutex
	entries map[string]hostEntry
	maxSize int
	now     func() time.Time
}

type hostEntry struct {
	tenant    *Tenant
	expiresAt time.Time
}

// NewInMemoryCache creates a process-local cache holding up to DefaultCacheSize hosts.
func NewInMemoryCache() Cache {
	return NewInMemoryCacheWithSize(DefaultCacheSize)
}

// NewInMemoryCacheWithSize creates a process-local cache holding up to maxSize hosts.
func NewInMemoryCacheWithSize(maxSize int) Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &hostCache{
		entries: make(map[string]hostEntry, maxSize),
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (c *hostCache) Get(ctx context.Context, host string) (*Tenant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[host]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, host)
		return nil, false
	}
	return e.tenant, true
}

func (c *hostCache) Set(ctx context.Context, host string, tenant *Tenant, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[host]; !ok && len(c.entries) >= c.maxSize {
		c.evict()
	}
	c.entries[host] = hostEntry{tenant: tenant, expiresAt: c.now().Add(ttl)}
}

func (c *hostCache) Delete(ctx context.Context, host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, host)
}

// Close drops every entry.
func (c *hostCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

// evict drops expired entries, or the one closest to expiry when none has expired.
func (c *hostCache) evict() {
	now := c.now()
	var (
		oldest    string
		oldestExp time.Time
	)
	for host, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, host)
			continue
		}
		if oldest == "" || e.expiresAt.Before(oldestExp) {
			oldest, oldestExp = host, e.expiresAt
		}
	}
	if len(c.entries) >= c.maxSize && oldest != "" {
		delete(c.entries, oldest)
	}
}

type noOpCache struct{}

// NewNoOpCache creates a cache that stores nothing; every request hits the provider.
func NewNoOpCache() Cache {
	return noOpCache{}
}

func (noOpCache) Get(context.Context, string) (*Tenant, bool)         { return nil, false }
func (noOpCache) Set(context.Context, string, *Tenant, time.Duration) {}
func (noOpCache) Delete(context.Context, string)                      {}
func (noOpCache) Close() error                                        { return nil }
