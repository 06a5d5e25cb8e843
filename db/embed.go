// Package db embeds the SQL migrations of the shared schema.
package db

import "embed"

// Migrations holds the goose migrations under the "migrations" directory.
//
//go:embed migrations/*.sql
var Migrations embed.FS
