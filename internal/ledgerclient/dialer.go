package ledgerclient

import (
	"context"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/ledger"
	"google.golang.org/grpc"
)

// GRPCDialer opens a fresh connection to address for every caller.
func GRPCDialer(address string, callTimeout time.Duration, opts ...grpc.DialOption) ledger.Dialer {
	return func(ctx context.Context) (ledger.Client, error) {
		return NewGRPCClient(address, callTimeout, opts...)
	}
}

// LocalDialer hands out clients of the shared in-process service.
func LocalDialer(svc *ledger.Service) ledger.Dialer {
	return func(ctx context.Context) (ledger.Client, error) {
		return NewLocalClient(svc), nil
	}
}
