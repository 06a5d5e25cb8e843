// Package tenant maps incoming requests to the tenant that owns the request
// host and runs the rest of the handler chain inside that tenant's schema.
//
// # Architecture
//
// The package is built around three cooperating pieces:
//
//  1. Resolver - extracts and normalizes the host name from the request
//     (port stripped, lowercased). Matching is exact: every reachable host
//     needs its own domain record.
//  2. Provider - loads the tenant bound to a host, returning ErrTenantNotFound
//     when there is none.
//  3. Middleware - orchestrates resolution and caching, checks out a dedicated
//     database connection, switches it to the tenant schema via package
//     schema and restores it when the handler returns.
//
// # Usage
//
//	mw := tenant.Middleware(registryStore, schema.FromPool(pool),
//		tenant.WithCacheTTL(time.Minute),
//		tenant.WithSkipPaths([]string{"/health"}),
//		tenant.WithLogger(log),
//	)
//	router.Use(mw)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		t, ok := tenant.FromContext(r.Context())
//		if !ok {
//			// public schema: apex or unknown host
//		}
//		q, _ := schema.QuerierFromContext(r.Context())
//		// q runs queries against t.SchemaName
//	}
//
// # Fallback policy
//
// Hosts without a domain record are served on the public schema with no
// tenant in context; this is how the apex host for administrative and
// marketing traffic works. Registry failures and schema switch failures are
// never downgraded: they abort the request with a JSON error. Every response
// carries X-Tenant-Schema and X-Tenant-Name headers.
//
// # Caching
//
// Resolved tenants are cached by host (a bounded in-memory TTL cache by
// default, RedisCache for multi-instance deployments). Misses are not cached.
// A cached tenant whose schema has been dropped is evicted and resolved again.
package tenant
