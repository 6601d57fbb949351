// Package ledgerclient provides ledger.Client implementations: a gRPC client
// for a remote ledger node and an in-process client for the embedded ledger.
package ledgerclient

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/dmitrijs2005/ledgerload/internal/ledger"
	"github.com/dmitrijs2005/ledgerload/internal/ledgerrpc"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader carries a per-call id the node echoes in its logs.
const RequestIDHeader = "x-request-id"

// DefaultCallTimeout bounds a single ledger call.
const DefaultCallTimeout = 30 * time.Second

type GRPCClient struct {
	address     string
	callTimeout time.Duration
	conn        *grpc.ClientConn
	client      ledgerrpc.LedgerClient
}

// NewGRPCClient creates a client for the node at address. The connection is
// established lazily on the first call.
func NewGRPCClient(address string, callTimeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	c := &GRPCClient{address: address, callTimeout: callTimeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(ledgerrpc.Codec{})),
		grpc.WithUnaryInterceptor(requestIDInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	c.conn = conn
	c.client = ledgerrpc.NewLedgerClient(conn)
	return c, nil
}

func withRequestID(ctx context.Context) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	if len(md.Get(RequestIDHeader)) == 0 {
		md.Set(RequestIDHeader, uuid.NewString())
	}
	return metadata.NewOutgoingContext(ctx, md)
}

func requestIDInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withRequestID(ctx), method, req, reply, cc, opts...)
}

func (c *GRPCClient) Submit(ctx context.Context, req *ledger.Request) (*ledger.Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	reply, err := c.client.Submit(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}
	return reply, reply.Err()
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	resp, err := c.client.Ping(ctx, &ledgerrpc.PingRequest{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != ledgerrpc.StatusOK {
		return fmt.Errorf("%w: status %q", ErrNotReady, resp.Status)
	}
	return nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorInvalidRequest, st.Message())
	case codes.Canceled:
		return fmt.Errorf("rpc canceled: %w", context.Canceled)
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
