package nyms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/dmitrijs2005/ledgerload/internal/dbx"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, dest string) (*models.Nym, error) {
	n := &models.Nym{}
	err := r.db.QueryRowContext(ctx,
		`SELECT dest, verkey, role, created_by, seq_no, txn_time FROM nyms WHERE dest = ?`, dest).
		Scan(&n.Dest, &n.Verkey, &n.Role, &n.CreatedBy, &n.SeqNo, &n.TxnTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get nym[%s]: %w", dest, err)
	}
	return n, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, n *models.Nym) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO nyms (dest, verkey, role, created_by, seq_no, txn_time) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(dest) DO UPDATE SET
			verkey = excluded.verkey,
			role = excluded.role,
			seq_no = excluded.seq_no,
			txn_time = excluded.txn_time
	`, n.Dest, n.Verkey, n.Role, n.CreatedBy, n.SeqNo, n.TxnTime)
	if err != nil {
		return fmt.Errorf("failed to upsert nym[%s]: %w", n.Dest, err)
	}
	return nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nyms`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count nyms: %w", err)
	}
	return n, nil
}
