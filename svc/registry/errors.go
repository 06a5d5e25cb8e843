package registry

import "errors"

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrDomainNotFound = errors.New("domain not found")
	ErrDomainTaken    = errors.New("domain is already registered")
	ErrTenantExists   = errors.New("tenant already exists")
	ErrStoreFailed    = errors.New("registry store failed")
)
