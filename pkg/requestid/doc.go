// Package requestid attaches a correlation id to every HTTP request, echoes
// it in the X-Request-ID response header and exposes it to structured logs.
package requestid
