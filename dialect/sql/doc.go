// Package sql provides the SQL driver wrapper and the semantic model
// document store used by unisem.
//
// # Driver
//
// Driver wraps a database/sql.DB and implements dialect.Driver. Statements
// are written with "?" placeholders; for Postgres they are rebound to the
// "$n" form before execution:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// StatsDriver wraps any dialect.Driver and counts statements, logging them
// with zap:
//
//	sd := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithStatsLogger(log),
//	)
//
// # Store
//
// Store keeps model documents in one table keyed by organization, project,
// kind and name:
//
//	store, err := sql.NewStore(sd)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := store.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	scope := sql.Scope{Organization: "acme", Project: "sales"}
//	err = store.Put(ctx, &sql.Document{Scope: scope, Kind: sql.KindModel, Name: "orders", Body: raw})
//
//	// Fetch sources in selection order and compose them.
//	docs, err := store.Sources(ctx, scope, []string{"orders", "customers"})
//	res, err := compiler.Compose(compiler.Request{Sources: docs})
package sql
