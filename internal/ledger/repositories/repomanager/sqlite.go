package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/ledgerload/internal/dbx"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/migrations"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/repositories/nyms"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/repositories/txns"
)

// SQLiteRepositoryManager vends SQLite-backed repositories, used by the
// embedded ledger and by single-host nodes.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Nyms(db dbx.DBTX) nyms.Repository {
	return nyms.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) Txns(db dbx.DBTX) txns.Repository {
	return txns.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return gooseUp(ctx, db, "sqlite3", migrations.SQLiteDir)
}
