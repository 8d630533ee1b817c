package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cerebro.v1.DecisionService"

// Full method names.
const (
	DecideMethod             = "/" + ServiceName + "/Decide"
	ResolveZoneMethod        = "/" + ServiceName + "/ResolveZone"
	RecordVerificationMethod = "/" + ServiceName + "/RecordVerification"
)

// DecisionServiceServer is the server API. Requests and responses are
// google.protobuf.Struct documents carrying the JSON wire shapes.
type DecisionServiceServer interface {
	Decide(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveZone(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordVerification(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFunc func(DecisionServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryFunc) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DecisionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DecisionServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes DecisionService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DecisionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Decide",
			Handler:    unaryHandler(DecideMethod, DecisionServiceServer.Decide),
		},
		{
			MethodName: "ResolveZone",
			Handler:    unaryHandler(ResolveZoneMethod, DecisionServiceServer.ResolveZone),
		},
		{
			MethodName: "RecordVerification",
			Handler:    unaryHandler(RecordVerificationMethod, DecisionServiceServer.RecordVerification),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cerebro/v1/decision.proto",
}
