// Package httpserver runs an http.Handler with graceful shutdown on context
// cancellation or SIGINT/SIGTERM, and provides JSON liveness and readiness
// handlers for orchestrator health checks.
package httpserver
