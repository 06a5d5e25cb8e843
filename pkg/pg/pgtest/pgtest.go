// Package pgtest connects tests to a real PostgreSQL instance.
//
// Tests using it are skipped unless PG_CONN_URL is set.
package pgtest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/marketplace/db"
	"github.com/dmitrymomot/marketplace/pkg/pg"
)

var seq atomic.Int64

// Pool returns a migrated pool closed when the test ends.
func Pool(t testing.TB) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	pool, err := pg.Connect(ctx, pg.Config{
		ConnectionString:  url,
		MaxOpenConns:      8,
		RetryAttempts:     1,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   time.Minute,
		MaxConnLifetime:   time.Hour,
		MigrationsTable:   "public.goose_db_version",
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, db.Migrations, pg.Config{MigrationsTable: "public.goose_db_version"}, slog.New(slog.DiscardHandler)))
	return pool
}

// Name returns a schema name unique to this test run.
func Name(prefix string) string {
	return fmt.Sprintf("%s_%d_%d", strings.ToLower(prefix), time.Now().UnixNano()%1_000_000_000, seq.Add(1))
}

// DropTenant removes a tenant and its schema created by a test.
func DropTenant(t testing.TB, pool *pgxpool.Pool, name string) {
	t.Helper()
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `DELETE FROM public.tenants WHERE schema_name = $1`, name)
	_, _ = pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{name}.Sanitize()+" CASCADE")
}

// Host derives a valid host name for a schema created by Name.
func Host(name string) string {
	return strings.ReplaceAll(name, "_", "-") + ".localhost"
}
