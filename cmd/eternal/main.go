package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"demokit/internal/config"
	"demokit/internal/delay"
	"demokit/internal/logging"
	"demokit/internal/loop"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	delayMode  string
	iterations uint64

	cfg    *config.Config
	logger *logging.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "eternal",
	Short: "Run three ticking workers and a main loop until stopped",
	Long: `Starts three background loops (100ms, 150ms, 200ms) and a main loop (120ms)
that each print an incrementing counter. The main loop also reports a milestone
every 10 iterations.

The demo runs until interrupted (SIGINT/SIGTERM) or killed. Use --iterations
to stop after a fixed number of main loop iterations.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if delayMode != "" {
			cfg.Loop.DelayMode = delayMode
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runEternal,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to demokit YAML config (log level is reloaded on change)")
	rootCmd.Flags().StringVar(&delayMode, "delay", "", "Delay policy: sleep or busy (default from config, busy)")
	rootCmd.Flags().Uint64Var(&iterations, "iterations", 0, "Stop after this many main loop iterations (0 = run until stopped)")
}

func main() {
	os.Exit(execute(os.Args, os.Stdout, os.Stderr))
}

// execute runs the command line and maps errors to an exit code.
func execute(argv []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(argv[1:])
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// runEternal runs the supervisor until a signal arrives or the iteration bound is hit
func runEternal(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	boot := logger.Get(logging.CategoryBoot)

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			boot.Info("Received shutdown signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			watcher, err := logging.NewLevelWatcher(configPath, logger)
			if err != nil {
				return fmt.Errorf("failed to create config watcher: %w", err)
			}
			if err := watcher.Start(ctx); err != nil {
				boot.Warn("config watcher disabled", zap.Error(err))
			}
			defer watcher.Stop()
		}
	}

	delayer, err := delay.New(cfg.Loop.DelayMode)
	if err != nil {
		return err
	}

	workers := make([]loop.Spec, 0, len(cfg.Loop.Workers))
	for _, w := range cfg.Loop.Workers {
		workers = append(workers, loop.SpecFromConfig(w))
	}

	boot.Debug("starting demo",
		zap.String("delay", cfg.Loop.DelayMode),
		zap.Int("workers", len(workers)),
		zap.Uint64("iterations", iterations))

	sup := loop.NewSupervisor(workers, loop.SpecFromConfig(cfg.Loop.Main),
		loop.NewConsole(cmd.OutOrStdout()), delayer, logger.Get(logging.CategoryLoop))
	sup.SetIterations(iterations)

	return sup.Run(ctx)
}
