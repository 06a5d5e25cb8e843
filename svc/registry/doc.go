// Package registry stores tenants and the domains bound to them in the
// shared schema.
//
// Store implements tenant.Provider for the request middleware and carries
// the administrative operations: listing and updating tenants, adding
// domains and choosing the primary one. Queries exposes the same statements
// over any pgx querier so provisioning can run them inside its transaction.
//
// Tenant records are never deleted here. Removal is the job of the explicit
// deprovisioning operation.
package registry
