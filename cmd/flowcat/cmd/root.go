package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vflow-stack/flowcat/internal/config"
	"github.com/vflow-stack/flowcat/internal/console"
	"github.com/vflow-stack/flowcat/internal/indexer"
	"github.com/vflow-stack/flowcat/internal/logging"
	"github.com/vflow-stack/flowcat/internal/watch"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	// Global flags
	configPath string
	verbose    bool

	// Root command flags
	dryRun    bool
	watchMode bool
)

var rootCmd = &cobra.Command{
	Use:   "flowcat [dir]",
	Short: "Validate workflow files and build the catalog index",
	Long: `flowcat scans a directory of workflow JSON files, validates the _meta
block of each one, resets the runtime flags (isEnabled, isFavorite,
wasEnabledBeforePermissionsLost) to false, and writes a sorted index.json.

Files that fail validation are reported and left untouched. The exit status
is 0 when every file is valid, 1 when any file failed, and 2 when the
directory cannot be scanned.

Examples:
  flowcat                      # Index ./workflows
  flowcat ./flows --dry-run    # Report without writing anything
  flowcat ./flows --watch      # Re-index whenever a workflow changes`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runIndex,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: ./"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and report without writing any file")
	rootCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-index when workflow files change")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("flowcat {{.Version}}\n")
}

// env holds the state shared by every command.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func (e *env) Close() {
	if e.closer != nil {
		e.closer.Close()
	}
}

// setup loads configuration and builds the logger.
func setup() (*env, error) {
	path := configPath
	if path == "" {
		path = config.FileName
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	logger, closer, err := logging.NewFromConfig(cfg, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	return &env{cfg: cfg, logger: logger, closer: closer}, nil
}

// commandContext returns the command's context, or Background when the
// command was invoked directly rather than through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// errValidationFailed marks a run that completed with invalid files.
var errValidationFailed = errors.New("validation failed")

func runIndex(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := commandContext(cmd)
	opts := indexer.OptionsFromConfig(e.cfg, e.cfg.ScanDir(args))
	opts.DryRun = dryRun
	printer := console.NewPrinter(cmd.OutOrStdout())

	err = indexOnce(ctx, opts, e.logger, printer)
	if !watchMode {
		return err
	}
	if err != nil && !errors.Is(err, errValidationFailed) {
		return err
	}

	w := watch.New(opts.Dir, opts.CatalogFileName, e.cfg.Watch.Debounce, func(ctx context.Context) error {
		if err := indexOnce(ctx, opts, e.logger, printer); err != nil && !errors.Is(err, errValidationFailed) {
			return err
		}
		return nil
	}, e.logger)

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes (Ctrl+C to stop)...\n", opts.Dir)
	return w.Watch(ctx)
}

// indexOnce performs one full run and prints its progress and summary.
func indexOnce(ctx context.Context, opts indexer.Options, logger *slog.Logger, printer *console.Printer) error {
	printer.Start(opts.Dir, opts.DryRun)

	res, err := indexer.New(opts, logger).WithReporter(printer).Run(ctx)
	if err != nil {
		return err
	}

	printer.Summary(res)
	if res.HasErrors() {
		return fmt.Errorf("%d workflow(s) failed: %w", len(res.Failed()), errValidationFailed)
	}
	return nil
}
