package node

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"github.com/dmitrijs2005/ledgerload/internal/ledger"
	"github.com/dmitrijs2005/ledgerload/internal/ledgerrpc"
	"github.com/dmitrijs2005/ledgerload/internal/logging"
	"github.com/dmitrijs2005/ledgerload/internal/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Ledger is the part of ledger.Service the gRPC server needs.
type Ledger interface {
	Submit(ctx context.Context, req *ledger.Request) (*ledger.Reply, error)
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	address string
	ledger  Ledger
	logger  logging.Logger
	metrics *metrics.Node
}

func NewGRPCServer(address string, l logging.Logger, lg Ledger, m *metrics.Node) *GRPCServer {
	return &GRPCServer{
		address: address,
		ledger:  lg,
		logger:  l.With("module", "grpc_server"),
		metrics: m,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on an existing listener until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(ledgerrpc.Codec{}),
		grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor),
	)
	ledgerrpc.RegisterLedgerServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *GRPCServer) Submit(ctx context.Context, req *ledger.Request) (*ledger.Reply, error) {
	reply, err := s.ledger.Submit(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, status.FromContextError(ctx.Err()).Err()
		}
		s.logger.Error(ctx, "submit failed", "reqId", req.ReqID, "error", err)
		return nil, status.Error(codes.Internal, common.ErrorInternal.Error())
	}
	if s.metrics != nil {
		s.metrics.ObserveReply(reply.Op)
	}
	return reply, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *ledgerrpc.PingRequest) (*ledgerrpc.PingReply, error) {
	if err := s.ledger.Ping(ctx); err != nil {
		s.logger.Warn(ctx, "ledger store unavailable", "error", err)
		return nil, status.Error(codes.Unavailable, "ledger store unavailable")
	}
	return &ledgerrpc.PingReply{Status: ledgerrpc.StatusOK}, nil
}
