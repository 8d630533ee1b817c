package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/cerebro/internal/cerebro"
)

// Server exposes a cerebro.Service as MCP tools, so assistants can ask for
// decisions the same way the app does.
type Server struct {
	mcpServer *mcpsdk.Server
	svc       *cerebro.Service
}

// New creates an MCP server backed by svc.
func New(svc *cerebro.Service, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{svc: svc}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cerebro",
			Version: version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds all cerebro tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cerebro_decide",
		Description: "Decide whether a user may perform an intent. Returns allowed, requires_validation (with the verification level to obtain) or blocked.",
	}, s.handleDecide)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cerebro_zone",
		Description: "Resolve the safety semaphore (green/yellow/red) for a coordinate or a territory id.",
	}, s.handleZone)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "cerebro_verify",
		Description: "Start or complete an identity verification for a user. Successful verifications satisfy later decisions until they expire.",
	}, s.handleVerify)
}
