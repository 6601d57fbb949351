package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/ledgerload/internal/dbx"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/repositories/nyms"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/repositories/txns"
)

// RepositoryManager vends dialect-specific repositories bound to a DBTX and
// migrates the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Nyms(db dbx.DBTX) nyms.Repository
	Txns(db dbx.DBTX) txns.Repository
}

// New returns the manager for dialect.
func New(dialect dbx.Dialect) (RepositoryManager, error) {
	switch dialect {
	case dbx.DialectPostgres:
		return &PostgresRepositoryManager{}, nil
	case dbx.DialectSQLite:
		return &SQLiteRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}
