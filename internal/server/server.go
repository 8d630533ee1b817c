package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/cerebro/internal/api"
	"github.com/ppiankov/cerebro/internal/cerebro"
	"github.com/ppiankov/cerebro/internal/ratelimit"
)

// Config holds gRPC server configuration.
type Config struct {
	Port int
	// RateLimit, when set, bounds calls per peer host.
	RateLimit *ratelimit.Limiter
}

// Server implements DecisionService over a cerebro.Service.
type Server struct {
	svc        *cerebro.Service
	log        *zap.Logger
	cfg        Config
	grpcServer *grpc.Server
}

// New creates a gRPC server for svc.
func New(svc *cerebro.Service, cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		svc: svc,
		log: log.Named("grpc"),
		cfg: cfg,
	}
	var opts []grpc.ServerOption
	if cfg.RateLimit != nil {
		opts = append(opts, grpc.UnaryInterceptor(s.rateLimit))
	}
	s.grpcServer = grpc.NewServer(opts...)
	s.grpcServer.RegisterService(&ServiceDesc, s)
	return s
}

func (s *Server) rateLimit(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	key := "unknown"
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		key = p.Addr.String()
		if host, _, err := net.SplitHostPort(key); err == nil {
			key = host
		}
	}
	if res := s.cfg.RateLimit.Allow(key); res.Exceeded {
		s.log.Warn("rate limited", zap.String("client", key), zap.String("method", info.FullMethod))
		return nil, status.Error(codes.ResourceExhausted, res.Reason)
	}
	return handler(ctx, req)
}

// Serve starts the gRPC server on the configured port. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	return s.ServeOn(lis)
}

// ServeOn starts the gRPC server on the given listener.
func (s *Server) ServeOn(lis net.Listener) error {
	s.log.Info("grpc listening", zap.String("addr", lis.Addr().String()))
	return s.grpcServer.Serve(lis)
}

// GracefulStop gracefully shuts down the gRPC server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// Decide implements the Decide RPC. Undecodable requests are rejected with
// InvalidArgument; everything else yields a decision.
func (s *Server) Decide(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.DecideRequest
	if err := api.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return encode(api.Decide(ctx, s.svc, req))
}

// ResolveZone implements the ResolveZone RPC.
func (s *Server) ResolveZone(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.ZoneRequest
	if err := api.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := api.Zone(s.svc, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(resp)
}

// RecordVerification implements the RecordVerification RPC.
func (s *Server) RecordVerification(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.VerificationRequest
	if err := api.FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := api.RecordVerification(ctx, s.svc, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(resp)
}

func encode(v any) (*structpb.Struct, error) {
	out, err := api.ToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, api.ErrBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, api.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
