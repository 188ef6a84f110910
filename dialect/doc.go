// Package dialect defines the database dialects supported by the unisem
// document store and the driver interfaces the store runs on.
//
// Each dialect is identified by the name its database/sql driver
// registers:
//
//	dialect.Postgres = "postgres" // github.com/lib/pq
//	dialect.MySQL    = "mysql"    // github.com/go-sql-driver/mysql
//	dialect.SQLite   = "sqlite"   // modernc.org/sqlite
//
// Opening a store:
//
//	drv, err := sql.Open(dialect.SQLite, "file:unisem.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//	store := sql.NewStore(drv)
package dialect
