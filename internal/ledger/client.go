package ledger

import "context"

// Client submits requests to a ledger. A reply other than REPLY is returned
// together with its *RejectError. Implementations are not required to be
// safe for concurrent use; each scenario job dials its own client.
type Client interface {
	Submit(ctx context.Context, req *Request) (*Reply, error)
	Close() error
}

// Dialer opens a new Client.
type Dialer func(ctx context.Context) (Client, error)
