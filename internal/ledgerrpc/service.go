package ledgerrpc

import (
	"context"

	"github.com/dmitrijs2005/ledgerload/internal/ledger"
	"google.golang.org/grpc"
)

const (
	ServiceName = "ledgerload.Ledger"

	SubmitMethod = "/" + ServiceName + "/Submit"
	PingMethod   = "/" + ServiceName + "/Ping"
)

type PingRequest struct{}

type PingReply struct {
	Status string `json:"status"`
}

// StatusOK is the Ping status of a healthy node.
const StatusOK = "OK"

// LedgerServer is the server API of the ledger service.
type LedgerServer interface {
	Submit(context.Context, *ledger.Request) (*ledger.Reply, error)
	Ping(context.Context, *PingRequest) (*PingReply, error)
}

func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func submitHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ledger.Request)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Submit(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SubmitMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Submit(ctx, req.(*ledger.Request))
	}
	return interceptor(ctx, in, info, handler)
}

func pingHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PingRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LedgerServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PingMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LedgerServer).Ping(ctx, req.(*PingRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Submit", Handler: submitHandler},
		{MethodName: "Ping", Handler: pingHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledgerload/ledger",
}

// LedgerClient is the client API of the ledger service.
type LedgerClient interface {
	Submit(ctx context.Context, in *ledger.Request, opts ...grpc.CallOption) (*ledger.Reply, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingReply, error)
}

type ledgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) LedgerClient {
	return &ledgerClient{cc: cc}
}

func (c *ledgerClient) Submit(ctx context.Context, in *ledger.Request, opts ...grpc.CallOption) (*ledger.Reply, error) {
	out := new(ledger.Reply)
	if err := c.cc.Invoke(ctx, SubmitMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ledgerClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingReply, error) {
	out := new(PingReply)
	if err := c.cc.Invoke(ctx, PingMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
