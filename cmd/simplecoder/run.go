package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/martinemde/simplecoder/coder"
	"github.com/martinemde/simplecoder/config"
	"github.com/martinemde/simplecoder/llm"
)

// runFlags are shared by run and watch.
type runFlags struct {
	output       string
	requirements string
	inputs       []string
	forceCode    bool
	workingDir   string
	maxEpoch     int
}

var flags runFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Produce the output file once",
	Long: `Runs the epoch loop once and writes the output file.

Example:
  simplecoder run --output hello.py --requirements "print hello world"
  simplecoder run -o api.go -r ">>reqs/api.md" -i "models.go store.go"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd, flags)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := runOnce(ctx, cfg, flags, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(res))
		return nil
	},
}

func registerRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "Output file to produce, relative to the working directory")
	f.StringVarP(&flags.requirements, "requirements", "r", "", "Requirements text, or >>FILE to read them from the working directory")
	f.StringArrayVarP(&flags.inputs, "input", "i", nil, "Reference file; repeat the flag or pass a space-separated list")
	f.BoolVar(&flags.forceCode, "force-code", true, "Ask for code rather than free-form file contents")
	f.StringVarP(&flags.workingDir, "working-dir", "w", "", "Override the configured working directory")
	f.IntVar(&flags.maxEpoch, "max-epoch", -1, "Override the configured epoch budget")
	_ = cmd.MarkFlagRequired("output")
	_ = cmd.MarkFlagRequired("requirements")
}

// loadSettings reads the config file and applies command-line overrides.
func loadSettings(cmd *cobra.Command, f runFlags) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if f.workingDir != "" {
		cfg.WorkingDir = f.workingDir
	}
	if f.maxEpoch >= 0 {
		cfg.MaxEpoch = f.maxEpoch
	}
	if cmd != nil && cmd.Flags().Changed("force-code") {
		cfg.ForceCode = f.forceCode
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// providerFactory builds the model backend. Tests replace it.
var providerFactory = func(cfg *config.Config) (llm.ProviderAdapter, error) {
	return llm.NewGollmAdapter(llm.GollmConfig{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
}

func newClient(cfg *config.Config, adapter llm.ProviderAdapter, transcript io.Writer) (*llm.Client, error) {
	policy := cfg.RetryPolicy()
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		appLogger().Warn("retrying model call",
			zap.Int("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))
	}
	return llm.NewClient(adapter,
		llm.WithDefaultModel(cfg.LLM.Model),
		llm.WithMiddleware(llm.TranscriptMiddleware(transcript), llm.RetryMiddleware(policy)),
	)
}

// runOnce performs one complete run and reports progress to out.
func runOnce(ctx context.Context, cfg *config.Config, f runFlags, out io.Writer) (*coder.Result, error) {
	log := appLogger()

	ws, err := coder.NewWorkspace(cfg.WorkingDir)
	if err != nil {
		return nil, err
	}
	role, err := coder.LoadRoleConfig(cfg.RoleConfig)
	if err != nil {
		return nil, err
	}
	state, err := coder.Prepare(ws, coder.Inputs{
		Requirements: f.requirements,
		Target:       f.output,
		References:   coder.SplitReferenceNames(f.inputs...),
		RoleConfig:   role,
		ForceCode:    cfg.ForceCode,
	})
	if err != nil {
		return nil, err
	}

	sysLog, err := ws.OpenAppend(cfg.SystemLog)
	if err != nil {
		return nil, fmt.Errorf("opening system log: %w", err)
	}
	defer sysLog.Close()

	adapter, err := providerFactory(cfg)
	if err != nil {
		return nil, err
	}
	client, err := newClient(cfg, adapter, sysLog)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	events := coder.NewEventEmitter(256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events.Events() {
			if line := formatEvent(ev); line != "" {
				fmt.Fprintln(out, progressStyle.Render(line))
			}
		}
	}()

	log.Info("starting run",
		zap.String("working_dir", ws.Root()),
		zap.String("target", state.TargetName),
		zap.Strings("references", state.ReferenceNames),
		zap.Bool("existing_content", state.HasContent()))

	ctrl := coder.NewController(state, client, ws.Persister(cfg.StopToken), ws,
		coder.WithStopToken(cfg.StopToken),
		coder.WithMaxEpoch(cfg.MaxEpoch),
		coder.WithModel(cfg.LLM.Model),
		coder.WithLogger(log),
		coder.WithEvents(events),
	)
	res, err := ctrl.Run(ctx)
	events.Close()
	<-done
	return res, err
}

func appLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
