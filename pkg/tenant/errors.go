package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no domain record matches a host.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInvalidHost is returned when the request host cannot be normalized.
	ErrInvalidHost = errors.New("invalid host")

	// ErrNoTenantInContext is returned when no tenant is found in context.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrInactiveTenant is returned when trying to use an inactive tenant.
	ErrInactiveTenant = errors.New("tenant is inactive")
)
