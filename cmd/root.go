package cmd

import (
	"promptpack/pkg/logging"
	"promptpack/pkg/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	debugFlag  bool
	configFlag string
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "promptpack",
	Short: "promptpack packs a source tree into token-budgeted LLM context chunks",
	Long: `promptpack crawls a source-code directory, filters it through ignore
patterns, serializes the surviving files into a single structured document,
and splits that document into chunks that fit a model's context budget.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugFlag {
			if debugLogger, err := logging.Setup(true, "promptpack", version.Get().Version); err == nil {
				logger = debugLogger
			}
		}
	},
}

// Execute runs the root command with the provided logger.
func Execute(l *zap.Logger) error {
	if l != nil {
		logger = l
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a YAML config file (default: ./config.yaml if present)")
}
