// Package txns stores the append-only ledger transaction log.
package txns

import (
	"context"

	"github.com/dmitrijs2005/ledgerload/internal/ledger/models"
)

type Repository interface {
	// Append stores txn and returns its sequence number.
	Append(ctx context.Context, txn *models.Txn) (int64, error)
	// Exists reports whether a request with the same sender and reqId was
	// already written.
	Exists(ctx context.Context, identifier string, reqID int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}
