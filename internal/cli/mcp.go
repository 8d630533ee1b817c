package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/cerebro/internal/cerebro"
	cerebromcp "github.com/ppiankov/cerebro/internal/mcp"
	"github.com/ppiankov/cerebro/internal/verification"
)

var (
	mcpPolicy       string
	mcpAuditLog     string
	mcpVerification string
)

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringVar(&mcpPolicy, "policy", "", "Path to policy YAML")
	mcpCmd.Flags().StringVar(&mcpAuditLog, "audit-log", "", "Path to audit log JSONL file")
	mcpCmd.Flags().StringVar(&mcpVerification, "verification-store", "memory", "Verification store: memory, sqlite:<path> or redis:<addr>")
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP tool server for agent integration",
	Long: "Runs cerebro as an MCP (Model Context Protocol) server over stdio.\n" +
		"Exposes cerebro_decide, cerebro_zone and cerebro_verify.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := log()

	store, err := verification.Open(ctx, mcpVerification)
	if err != nil {
		return err
	}
	svc, err := cerebro.Load(cerebro.Options{
		PolicyPath:   mcpPolicy,
		AuditLogPath: mcpAuditLog,
		Store:        store,
		Logger:       log,
	})
	if err != nil {
		store.Close()
		return err
	}
	defer svc.Close(cmd.Context())

	log.Info("mcp server running on stdio", zap.String("policy_hash", svc.PolicyHash()))
	return cerebromcp.New(svc, Version).Run(ctx)
}
