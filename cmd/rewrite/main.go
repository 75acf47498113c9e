package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"demokit/internal/config"
	"demokit/internal/logging"
	"demokit/internal/scaffold"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	packageName string

	cfg    *config.Config
	logger *logging.Logger
)

// errUsage signals too few positional arguments.
var errUsage = errors.New("missing arguments")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rewrite <manifest> <program>",
	Short: "Write a minimal Cargo project scaffold",
	Long: `Writes two files:
  <manifest>  a Cargo.toml for a size-optimized release build
  <program>   a main.rs that prints a greeting

Existing files are truncated. If the second file cannot be written, the first
is restored to what it held before the command ran.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return errUsage
		}
		return nil
	},
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if packageName != "" {
			cfg.Scaffold.PackageName = packageName
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
	RunE: runRewrite,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to demokit YAML config")
	rootCmd.Flags().StringVar(&packageName, "name", "", "Package name written into the manifest (default from config)")
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
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Usage: %s <manifest> <program>\n", argv[0])
			return 1
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// runRewrite writes the scaffold to the first two positional paths
func runRewrite(cmd *cobra.Command, args []string) error {
	log := logger.Get(logging.CategoryScaffold)
	manifestPath, programPath := args[0], args[1]

	log.Debug("writing scaffold",
		zap.String("manifest", manifestPath),
		zap.String("program", programPath),
		zap.String("package", cfg.Scaffold.PackageName))

	w := scaffold.NewWriter(scaffold.Params{PackageName: cfg.Scaffold.PackageName}, log)
	if err := w.Write(cmd.Context(), scaffold.DefaultPlan(manifestPath, programPath)); err != nil {
		log.Debug("scaffold failed", zap.Error(err))
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "rewrite!")
	return nil
}
