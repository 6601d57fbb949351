package txns

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/ledgerload/internal/dbx"
	"github.com/dmitrijs2005/ledgerload/internal/ledger/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, t *models.Txn) (int64, error) {
	query :=
		`INSERT INTO txns (identifier, req_id, type, dest, verkey, role, txn_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING seq_no
		 `

	var seqNo int64
	err := r.db.QueryRowContext(ctx, query,
		t.Identifier, t.ReqID, t.Type, t.Dest, t.Verkey, t.Role, t.TxnTime).Scan(&seqNo)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	t.SeqNo = seqNo
	return seqNo, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, identifier string, reqID int64) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM txns WHERE identifier = $1 AND req_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, identifier, reqID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM txns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
