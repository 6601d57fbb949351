// Package nyms stores the current state of ledger identities.
package nyms

import (
	"context"

	"github.com/dmitrijs2005/ledgerload/internal/ledger/models"
)

type Repository interface {
	// Get returns common.ErrorNotFound when dest is not on the ledger.
	Get(ctx context.Context, dest string) (*models.Nym, error)
	Upsert(ctx context.Context, nym *models.Nym) error
	Count(ctx context.Context) (int64, error)
}
