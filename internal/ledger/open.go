package ledger

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ledgerload/internal/dbx"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/repositories/repomanager"
	"github.com/dmitrijs2005/ledgerload/internal/logging"
)

// Open opens the ledger database at dsn, migrates it, writes the genesis
// nyms and returns a ready Service. Close releases the database.
func Open(ctx context.Context, dsn string, log logging.Logger, genesis ...GenesisNym) (*Service, error) {
	db, dialect, err := dbx.Open(dsn)
	if err != nil {
		return nil, err
	}

	m, err := repomanager.New(dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	s := NewService(db, m, log)
	if err := s.Bootstrap(ctx, genesis...); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("genesis: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}
