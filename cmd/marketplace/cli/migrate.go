package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/marketplace/db"
	"github.com/dmitrymomot/marketplace/pkg/pg"
)

var skipTenants bool

func init() {
	migrateUpCmd.Flags().BoolVar(&skipTenants, "shared-only", false, "migrate the public schema without syncing tenant schemas")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply public schema migrations and sync every tenant schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			if err := pg.Migrate(ctx, a.pool, db.Migrations, a.cfg.PG, a.log); err != nil {
				return err
			}
			if skipTenants {
				return nil
			}
			synced, err := a.provisioner().SyncSchemas(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d tenant schema(s)\n", len(synced))
			return err
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent public schema migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			return pg.Rollback(ctx, a.pool, db.Migrations, a.cfg.PG, a.log)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the public schema migration version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			v, err := pg.Version(ctx, a.pool, db.Migrations, a.cfg.PG, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d\n", v)
			return nil
		})
	},
}
