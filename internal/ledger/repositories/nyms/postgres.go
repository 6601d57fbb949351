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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, dest string) (*models.Nym, error) {
	query :=
		`SELECT dest, verkey, role, created_by, seq_no, txn_time FROM nyms
		 WHERE dest = $1
		 `

	n := &models.Nym{}
	err := r.db.QueryRowContext(ctx, query, dest).Scan(&n.Dest, &n.Verkey, &n.Role, &n.CreatedBy, &n.SeqNo, &n.TxnTime)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, n *models.Nym) error {
	query :=
		`INSERT INTO nyms (dest, verkey, role, created_by, seq_no, txn_time)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (dest) DO UPDATE
		 SET verkey = EXCLUDED.verkey, role = EXCLUDED.role, seq_no = EXCLUDED.seq_no, txn_time = EXCLUDED.txn_time
		 `

	_, err := r.db.ExecContext(ctx, query, n.Dest, n.Verkey, n.Role, n.CreatedBy, n.SeqNo, n.TxnTime)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nyms`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
