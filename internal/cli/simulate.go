package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cerebro/internal/scenario"
	"github.com/ppiankov/cerebro/internal/sim"
)

var (
	simScenario string
	simPolicy   string
	simBaseline string
	simFormat   string
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Glob pattern for scenario YAML files (required)")
	simulateCmd.Flags().StringVar(&simPolicy, "policy", "", "Path to candidate policy YAML (required)")
	simulateCmd.Flags().StringVar(&simBaseline, "baseline", "", "Path to baseline policy YAML (default: built-in policy)")
	simulateCmd.Flags().StringVarP(&simFormat, "format", "f", "text", "Output format (text|json)")
	simulateCmd.MarkFlagRequired("scenario")
	simulateCmd.MarkFlagRequired("policy")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Show which scenario outcomes a candidate policy would change",
	Long: "Decides every scenario case under the baseline and the candidate policy\n" +
		"and lists the cases whose outcome differs.\n\n" +
		"Use this to preview policy changes before deploying them.",
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	paths, err := scenario.Glob(simScenario)
	if err != nil {
		return err
	}
	result, err := sim.Simulate(paths, simBaseline, simPolicy, time.Now())
	if err != nil {
		return err
	}

	switch simFormat {
	case "json":
		out, err := sim.FormatJSON(result)
		if err != nil {
			return err
		}
		writeResult(cmd.OutOrStdout(), out)
	default:
		writeResult(cmd.OutOrStdout(), sim.FormatText(result))
	}
	return nil
}
