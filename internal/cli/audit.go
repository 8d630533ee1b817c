package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cerebro/internal/audit"
)

var (
	tailLines    int
	tailFormat   string
	replayUser   string
	replayIntent string
	replayKind   string
	replayFrom   string
	replayTo     string
	replayFormat string
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditVerifyCmd)
	auditCmd.AddCommand(auditTailCmd)
	auditCmd.AddCommand(auditReplayCmd)

	auditTailCmd.Flags().IntVarP(&tailLines, "lines", "n", 10, "Number of recent entries to show")
	auditTailCmd.Flags().StringVarP(&tailFormat, "format", "f", "text", "Output format (text|json)")

	auditReplayCmd.Flags().StringVar(&replayUser, "user", "", "Only entries for this user ID")
	auditReplayCmd.Flags().StringVar(&replayIntent, "intent", "", "Only entries for this intent")
	auditReplayCmd.Flags().StringVar(&replayKind, "kind", "", "Only this outcome kind (allowed|requires_validation|blocked)")
	auditReplayCmd.Flags().StringVar(&replayFrom, "from", "", "Start time (RFC3339 or a duration ago, e.g. 1h)")
	auditReplayCmd.Flags().StringVar(&replayTo, "to", "", "End time (RFC3339 or a duration ago)")
	auditReplayCmd.Flags().StringVarP(&replayFormat, "format", "f", "text", "Output format (text|json)")
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit log operations",
	Long:  "Commands for verifying and inspecting the hash-chained decision log.",
}

var auditVerifyCmd = &cobra.Command{
	Use:   "verify <path>",
	Short: "Verify hash chain integrity of an audit log",
	Long:  "Walks the JSONL audit log and validates that every entry's prev_hash\nmatches the SHA-256 of the previous line. Exits non-zero if tampered.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditVerify,
}

var auditTailCmd = &cobra.Command{
	Use:   "tail <path>",
	Short: "Show recent audit log entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditTail,
}

var auditReplayCmd = &cobra.Command{
	Use:   "replay <path>",
	Short: "Reconstruct the decision timeline from an audit log",
	Long:  "Filters the audit log by user, intent, outcome kind and time range\nand prints a timeline with an outcome summary.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditReplay,
}

var errChainBroken = errors.New("audit chain verification failed")

func runAuditVerify(cmd *cobra.Command, args []string) error {
	result := audit.Verify(args[0])
	if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "OK: %d entries verified\n", result.Lines)
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "FAILED at line %d: %s\n", result.ErrorLine, result.Error)
	return errChainBroken
}

func runAuditTail(cmd *cobra.Command, args []string) error {
	result, err := audit.Replay(args[0], audit.Filter{Last: tailLines})
	if err != nil {
		return err
	}
	return printReplay(cmd, result, tailFormat)
}

func runAuditReplay(cmd *cobra.Command, args []string) error {
	now := time.Now()
	from, err := parseTime(replayFrom, now)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	to, err := parseTime(replayTo, now)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return fmt.Errorf("--to is before --from")
	}

	result, err := audit.Replay(args[0], audit.Filter{
		UserID: replayUser,
		Intent: replayIntent,
		Kind:   replayKind,
		From:   from,
		To:     to,
	})
	if err != nil {
		return err
	}
	return printReplay(cmd, result, replayFormat)
}

func printReplay(cmd *cobra.Command, result *audit.ReplayResult, format string) error {
	switch format {
	case "json":
		out, err := audit.FormatJSON(result)
		if err != nil {
			return err
		}
		writeResult(cmd.OutOrStdout(), out)
	default:
		writeResult(cmd.OutOrStdout(), audit.FormatTimeline(result))
	}
	return nil
}
