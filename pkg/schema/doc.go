// Package schema binds a PostgreSQL schema (namespace) to the operation that
// is currently executing.
//
// Two layers are provided. The first one carries the active schema name in a
// context.Context so that any code on the request path can ask which tenant
// namespace it is running against:
//
//	err := schema.Run(ctx, "techstore", func(ctx context.Context) error {
//	    fmt.Println(schema.FromContext(ctx)) // techstore
//	    return nil
//	})
//
// The second one, Session, binds the selection to a single checked-out
// connection (or transaction) by switching its search_path. Session.Run
// captures the previous schema, switches, runs the operation and restores the
// previous schema on every exit path: normal return, error, panic and context
// cancellation. Nested calls behave like a stack.
//
//	conn, err := schema.FromPool(pool).Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer conn.Release()
//
//	sess := schema.NewSession(conn)
//	err = sess.Run(ctx, "techstore", func(ctx context.Context) error {
//	    _, err := sess.Exec(ctx, "INSERT INTO products (name, price) VALUES ($1, $2)", "Laptop", "999.00")
//	    return err
//	})
//
// A Session must never be shared between goroutines that expect different
// active schemas. Every request gets its own connection and its own Session.
//
// Switching to a schema that does not exist fails with ErrSchemaNotFound
// wrapped in ErrSwitchFailed. There is no silent fallback to the public
// schema.
package schema
