package node

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ledgerload/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeader = "x-request-id"

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDHeader); len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	started := time.Now()
	resp, err := handler(ctx, req)
	took := time.Since(started)

	code := status.Code(err)
	if s.metrics != nil {
		s.metrics.ObserveRequest(info.FullMethod, code.String(), took)
	}
	s.logger.Debug(ctx, "rpc", "method", info.FullMethod, "code", code.String(), "took", took, "requestId", requestID(ctx))
	return resp, err
}

func (s *GRPCServer) recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(ctx, "handler panicked", "method", info.FullMethod, "panic", fmt.Sprint(r))
			err = status.Error(codes.Internal, common.ErrorInternal.Error())
		}
	}()
	return handler(ctx, req)
}
