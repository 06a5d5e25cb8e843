// Package redis connects to the Redis instance backing the shared tenant
// resolution cache and exposes a readiness check for it.
package redis
