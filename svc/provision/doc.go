// Package provision creates, removes and upgrades tenant schemas.
//
// Provision registers a tenant, creates its schema with every tenant-scoped
// table and binds its primary domain in a single transaction: either all of
// it exists afterwards or none of it does. Deprovision is the only path that
// deletes a tenant and it requires the schema name to be repeated as
// confirmation. SyncSchemas re-applies tenant-scoped tables to every
// registered schema and is safe to run repeatedly.
//
// The set of shared and tenant-scoped entities is declared statically in
// Entities.
package provision
