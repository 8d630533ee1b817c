package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/cerebro/internal/api"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/server"
)

// DefaultTimeout bounds each RPC when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// Client connects to a cerebro gRPC decision server.
type Client struct {
	conn *grpc.ClientConn
}

// New creates a gRPC client for addr. Extra dial options are appended to the
// insecure transport default.
func New(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to decision server: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Decide asks the server for a decision.
// Fail-closed: on any transport or decoding error the returned response is a
// Blocked outcome with the generic message, alongside the error.
func (c *Client) Decide(ctx context.Context, req api.DecideRequest) (api.DecideResponse, error) {
	var resp api.DecideResponse
	if err := c.invoke(ctx, server.DecideMethod, req, &resp); err != nil {
		return api.DecideResponse{Outcome: model.Render(model.Fault(err))}, err
	}
	return resp, nil
}

// ResolveZone asks the server for a zone state.
func (c *Client) ResolveZone(ctx context.Context, req api.ZoneRequest) (api.ZoneResponse, error) {
	var resp api.ZoneResponse
	err := c.invoke(ctx, server.ResolveZoneMethod, req, &resp)
	return resp, err
}

// RecordVerification reports a capture attempt to the server.
func (c *Client) RecordVerification(ctx context.Context, req api.VerificationRequest) (api.VerificationResponse, error) {
	var resp api.VerificationResponse
	err := c.invoke(ctx, server.RecordVerificationMethod, req, &resp)
	return resp, err
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	in, err := api.ToStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return fmt.Errorf("decision server: %w", err)
	}
	return api.FromStruct(out, resp)
}
