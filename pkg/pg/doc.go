// Package pg bootstraps the PostgreSQL layer on top of pgx/v5: a retrying
// pool constructor, goose migrations for the shared schema, a transaction
// helper, a readiness check and predicates for common PostgreSQL errors.
//
// Basic usage:
//
//	cfg := config.MustLoad[pg.Config]()
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, db.Migrations, cfg, log); err != nil {
//		return err
//	}
//
// Migrations are read from the MigrationsDir directory of the supplied
// filesystem, which is normally embedded into the binary.
package pg
