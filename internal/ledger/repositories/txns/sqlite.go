package txns

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ledgerload/internal/dbx"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, t *models.Txn) (int64, error) {
	var seqNo int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO txns (identifier, req_id, type, dest, verkey, role, txn_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING seq_no
	`, t.Identifier, t.ReqID, t.Type, t.Dest, t.Verkey, t.Role, t.TxnTime).Scan(&seqNo)
	if err != nil {
		return 0, fmt.Errorf("failed to append txn: %w", err)
	}
	t.SeqNo = seqNo
	return seqNo, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, identifier string, reqID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM txns WHERE identifier = ? AND req_id = ?`, identifier, reqID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up txn: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM txns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count txns: %w", err)
	}
	return n, nil
}
