package engine

import (
	"database/sql"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Open opens a SQLite database using the modernc.org/sqlite driver.
//
// For file-based databases, pass a path like "./places.sqlite". For in-memory
// databases, pass ":memory:". Virtual tables that read their shadow table
// through a second connection need a file database.
func Open(dsn string) (*sql.DB, error) { return sql.Open("sqlite", dsn) }
