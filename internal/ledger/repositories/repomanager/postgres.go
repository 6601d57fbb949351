// Package repomanager wires the ledger repositories of one SQL dialect
// together with the schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/ledgerload/internal/dbx"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/migrations"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/repositories/nyms"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/repositories/txns"
	"github.com/pressly/goose/v3"
)

// goose keeps its base FS and dialect in package state.
var gooseMu sync.Mutex

// gooseUp is a seam for testing goose.UpContext.
var gooseUp = func(ctx context.Context, db *sql.DB, dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct{}

// Nyms returns a nyms.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Nyms(db dbx.DBTX) nyms.Repository {
	return nyms.NewPostgresRepository(db)
}

// Txns returns a txns.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Txns(db dbx.DBTX) txns.Repository {
	return txns.NewPostgresRepository(db)
}

// RunMigrations applies the embedded postgres migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return gooseUp(ctx, db, "pgx", migrations.PostgresDir)
}

