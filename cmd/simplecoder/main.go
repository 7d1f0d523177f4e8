package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "simplecoder",
	Short: "Iteratively write a file with an LLM until it meets its requirements",
	Long: `simplecoder asks a language model to produce one output file that satisfies
a set of requirements. Each epoch the model sees the current file, any
reference files and the requirements; the first code block in its reply
becomes the new file content. The run ends when the model answers with the
stop token or the epoch budget runs out, and the content is written to disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "simplecoder.yaml", "Path to the YAML config file")

	registerRunFlags(runCmd)
	registerRunFlags(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watchDebounce, "Quiet period before a change triggers a rerun")

	rootCmd.AddCommand(runCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
