package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/cerebro/internal/logging"
)

var (
	logLevel  string
	logFormat string
	logger    *zap.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (json|console)")
}

var rootCmd = &cobra.Command{
	Use:   "cerebro",
	Short: "Intent authorization engine for the super-app",
	Long: "Decides whether a user may perform an intent given their role, identity\n" +
		"verification freshness, location safety and active escudos.\n" +
		"Every answer is allowed, requires_validation or blocked. Faults fail closed.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(logLevel, logFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func log() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
