package handler

import (
	"context"

	"github.com/devrev/graphmesh/internal/priority"
	"google.golang.org/grpc"
)

// GateUnaryInterceptor marks every unary RPC as data processing so deferred
// log output waits for it.
func GateUnaryInterceptor(gate *priority.Gate) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		gate.Enter()
		defer gate.Leave()
		return handler(ctx, req)
	}
}

// GateStreamInterceptor is the streaming counterpart of GateUnaryInterceptor
func GateStreamInterceptor(gate *priority.Gate) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		gate.Enter()
		defer gate.Leave()
		return handler(srv, ss)
	}
}
