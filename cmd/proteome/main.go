// Command proteome serves and queries protein copy-number tables.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"proteomecore/internal/blob"
	"proteomecore/internal/config"
	"proteomecore/internal/core"
	"proteomecore/internal/logging"
	"proteomecore/internal/source"
)

var (
	// Global flags
	configPath string
	verbose    bool
	tracePath  string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "proteome",
	Short: "Explore protein copy numbers across cell lines",
	Long: `proteome loads a copy-number table (one row per protein group, one
"Copy number <cell line>" column per cell line) and answers identifier,
series and filter-list queries over it, either once from the command line
or continuously over HTTP with "proteome serve".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Log.Level = "debug"
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		l, err := logging.New(loaded.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg, logger = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "proteome.yaml", "Config file (missing file uses defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&tracePath, "trace", "", "Append JSON trace spans to this file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout for one-shot commands")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(scatterCmd)
	rootCmd.AddCommand(barCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(listsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the resources a command opens from the configuration.
type app struct {
	blobs   blob.Store
	service *core.Service
	closers []io.Closer
}

func (r *app) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i].Close())
	}
	return errors.Join(errs...)
}

// openRuntime wires the blob store, dataset source, filter-list catalog and
// service from cfg. extra options are applied after the defaults.
func openRuntime(ctx context.Context, extra ...core.Option) (*app, error) {
	rt := &app{}
	blobs, err := blob.Open(ctx, cfg.BlobOptions())
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	rt.blobs = blobs

	src, err := source.New(cfg.SourceOptions(), blobs)
	if err != nil {
		return nil, fmt.Errorf("configure source: %w", err)
	}

	lists, err := core.OpenFilterListStore(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("open filter list store: %w", err)
	}
	rt.closers = append(rt.closers, lists)

	opts := []core.Option{
		core.WithLogger(logging.Adapt(logger)),
		core.WithLoader(cfg.Loader()),
		core.WithFilterLists(lists),
		core.WithListConcurrency(cfg.FilterLists.Concurrency),
		core.WithResolverCacheSize(cfg.Resolver.CacheSize),
	}
	if tracePath != "" {
		f, err := os.OpenFile(tracePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		rt.closers = append(rt.closers, f)
		opts = append(opts, core.WithTracer(core.NewJSONTracer(f)))
	}
	rt.service = core.NewService(src, append(opts, extra...)...)
	return rt, nil
}

// loadedRuntime opens the runtime and loads the dataset.
func loadedRuntime(ctx context.Context) (*app, error) {
	rt, err := openRuntime(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := rt.service.Load(ctx); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
