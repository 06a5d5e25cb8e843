// Package catalog reads and writes the tenant-scoped products and orders.
//
// Every query runs on the schema session bound to the context by the tenant
// middleware or by schema.Scoped, with unqualified table names. The same code
// therefore sees a different tenant's rows depending only on the active
// schema, and fails with ErrNotInTenantSchema on the public schema.
package catalog
