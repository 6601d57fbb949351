package dbx

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavour of an opened database.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectOf picks the dialect from a DSN: postgres:// and postgresql:// URLs
// select PostgreSQL, anything else is a SQLite path or URI.
func DialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open opens the ledger database described by dsn.
//
// SQLite handles are limited to one open connection: writers are serialized
// anyway, and ":memory:" databases are per-connection.
func Open(dsn string) (*sql.DB, Dialect, error) {
	dialect := DialectOf(dsn)

	driver := "sqlite"
	if dialect == DialectPostgres {
		driver = "pgx"
	}

	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
			_ = db.Close()
			return nil, "", fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	return db, dialect, nil
}
