package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cerebro/internal/policy"
	"github.com/ppiankov/cerebro/internal/policydiff"
)

var diffFormat string

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text", "Output format (text|json)")
}

var diffCmd = &cobra.Command{
	Use:   "diff <old.yaml> <new.yaml>",
	Short: "Compare two policy files and show changes",
	Long: "Loads two policy YAML files and shows what changed: escalation thresholds,\n" +
		"freshness TTLs, territory states, sensitive intents and escudos.",
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldCfg, err := policy.LoadConfig(args[0])
	if err != nil {
		return fmt.Errorf("load old policy: %w", err)
	}
	newCfg, err := policy.LoadConfig(args[1])
	if err != nil {
		return fmt.Errorf("load new policy: %w", err)
	}

	result := policydiff.Diff(oldCfg, newCfg)
	result.OldPath = args[0]
	result.NewPath = args[1]

	switch diffFormat {
	case "json":
		out, err := policydiff.FormatJSON(result)
		if err != nil {
			return err
		}
		writeResult(cmd.OutOrStdout(), out)
	default:
		writeResult(cmd.OutOrStdout(), policydiff.FormatText(result))
	}
	return nil
}
