package ledgerclient

import (
	"context"

	"github.com/dmitrijs2005/ledgerload/internal/ledger"
)

// LocalClient submits requests to an in-process ledger.Service. It does not
// own the service: Close is a no-op.
type LocalClient struct {
	svc *ledger.Service
}

func NewLocalClient(svc *ledger.Service) *LocalClient {
	return &LocalClient{svc: svc}
}

func (c *LocalClient) Submit(ctx context.Context, req *ledger.Request) (*ledger.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reply, err := c.svc.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return reply, reply.Err()
}

func (c *LocalClient) Close() error {
	return nil
}
