package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cerebro/internal/systemd"
)

var (
	unitOpts   = systemd.DefaultOptions()
	unitOutput string
	unitForce  bool
	unitVerify bool
)

var errUnitModified = errors.New("systemd unit modified")

func init() {
	rootCmd.AddCommand(initSystemdCmd)
	f := initSystemdCmd.Flags()
	f.StringVarP(&unitOutput, "output", "o", "", "Write the unit here (and <output>.sha256); default stdout")
	f.BoolVar(&unitForce, "force", false, "Overwrite an existing unit")
	f.BoolVar(&unitVerify, "verify", false, "Compare --output against its stored hash instead of writing")
	f.StringVar(&unitOpts.Binary, "binary", unitOpts.Binary, "Path to the cerebro binary")
	f.StringVar(&unitOpts.User, "user", unitOpts.User, "Service user and group")
	f.StringVar(&unitOpts.PolicyPath, "policy", unitOpts.PolicyPath, "Policy YAML path")
	f.StringVar(&unitOpts.AuditLog, "audit-log", unitOpts.AuditLog, "Audit log path")
	f.StringVar(&unitOpts.VerificationStore, "verification-store", unitOpts.VerificationStore, "Verification store spec")
	f.IntVar(&unitOpts.GRPCPort, "grpc-port", unitOpts.GRPCPort, "gRPC listen port")
	f.StringVar(&unitOpts.HTTPAddr, "http-addr", unitOpts.HTTPAddr, "HTTP listen address")
	f.IntVar(&unitOpts.RateLimit, "rate-limit", 0, "Max requests per client per minute (0 disables)")
}

var initSystemdCmd = &cobra.Command{
	Use:   "init-systemd",
	Short: "Generate a hardened systemd unit for cerebro serve",
	RunE:  runInitSystemd,
}

func runInitSystemd(cmd *cobra.Command, args []string) error {
	hashPath := unitOutput + ".sha256"

	if unitVerify {
		if unitOutput == "" {
			return fmt.Errorf("--verify requires --output")
		}
		if msg := systemd.CheckIntegrity(unitOutput, hashPath); msg != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), msg)
			return errUnitModified
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", unitOutput)
		return nil
	}

	unit, err := systemd.Render(unitOpts)
	if err != nil {
		return err
	}
	if unitOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), unit)
		return nil
	}

	if _, err := os.Stat(unitOutput); err == nil && !unitForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", unitOutput)
	}
	if err := os.MkdirAll(filepath.Dir(unitOutput), 0755); err != nil {
		return fmt.Errorf("cannot create unit directory: %w", err)
	}
	if err := os.WriteFile(unitOutput, []byte(unit), 0644); err != nil {
		return fmt.Errorf("failed to write unit: %w", err)
	}
	if err := os.WriteFile(hashPath, []byte(systemd.Hash([]byte(unit))+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write unit hash: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", unitOutput)
	return nil
}
