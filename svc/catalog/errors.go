package catalog

import "errors"

var (
	ErrNotInTenantSchema = errors.New("operation requires a tenant schema")
	ErrQueryFailed       = errors.New("catalog query failed")
	ErrIsolationViolated = errors.New("tenant data is visible from another tenant")
)
