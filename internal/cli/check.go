package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cerebro/internal/scenario"
)

var (
	checkScenario string
	checkPolicy   string
	checkFormat   string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkScenario, "scenario", "", "Glob pattern for scenario YAML files (required)")
	checkCmd.Flags().StringVar(&checkPolicy, "policy", "", "Path to policy YAML (optional)")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
	checkCmd.MarkFlagRequired("scenario")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run decision assertions from scenario files",
	Long: "Loads scenario YAML files matching a glob pattern, decides each case\n" +
		"against the policy and reports pass/fail.\n\n" +
		"Exits non-zero if any case fails. Use in CI to gate policy changes.",
	RunE: runCheck,
}

var errCheckFailed = errors.New("scenario check failed")

func runCheck(cmd *cobra.Command, args []string) error {
	matches, err := scenario.Glob(checkScenario)
	if err != nil {
		return err
	}

	now := time.Now()
	var results []*scenario.RunResult
	for _, path := range matches {
		r, err := scenario.LoadAndRun(path, checkPolicy, now)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, r)
	}

	out := cmd.OutOrStdout()
	switch checkFormat {
	case "json":
		s, err := scenario.FormatJSON(results)
		if err != nil {
			return err
		}
		writeResult(out, s)
	default:
		writeResult(out, scenario.FormatText(results))
	}

	for _, r := range results {
		if r.Failed > 0 {
			return errCheckFailed
		}
	}
	return nil
}
