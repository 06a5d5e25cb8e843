package tenant

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strings"
)

// MaxHostLength is the DNS limit for a fully-qualified host name.
const MaxHostLength = 253

var hostPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)

// Resolver extracts the host name used for tenant lookup from HTTP requests.
type Resolver interface {
	// Resolve returns the normalized host name of the request.
	// Returns empty string if the request carries no host.
	Resolve(r *http.Request) (string, error)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as Resolvers.
type ResolverFunc func(r *http.Request) (string, error)

// Resolve calls the function.
func (f ResolverFunc) Resolve(r *http.Request) (string, error) {
	return f(r)
}

// NormalizeHost strips the port and trailing dot and lowercases the host.
// No wildcard or subdomain handling is applied: the result is matched exactly.
func NormalizeHost(host string) (string, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return "", nil
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.Trim(host, "[]"), ".")

	if len(host) > MaxHostLength || !hostPattern.MatchString(host) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHost, host)
	}
	return host, nil
}

// NewHostResolver resolves the tenant host from the request's Host header.
func NewHostResolver() Resolver {
	return ResolverFunc(func(r *http.Request) (string, error) {
		return NormalizeHost(r.Host)
	})
}

// NewForwardedHostResolver prefers the given proxy header (e.g. X-Forwarded-Host)
// and falls back to the request's Host. Only use it behind a trusted proxy.
func NewForwardedHostResolver(header string) Resolver {
	if header == "" {
		header = "X-Forwarded-Host"
	}
	return ResolverFunc(func(r *http.Request) (string, error) {
		if v := r.Header.Get(header); v != "" {
			// The first entry is the host the client originally requested.
			first, _, _ := strings.Cut(v, ",")
			return NormalizeHost(first)
		}
		return NormalizeHost(r.Host)
	})
}
