package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"proteomecore/internal/adapters/explorer"
	"proteomecore/internal/config"
	"proteomecore/internal/core"
	"proteomecore/internal/logging"
)

var serveLazy bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explorer HTTP API",
	Long: `Starts the HTTP API on the configured address. The dataset is loaded in
the background at startup unless --lazy is set, in which case the first
POST /api/v1/load triggers it. SIGINT or SIGTERM drains in-flight requests
and the export worker before exiting.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveLazy, "lazy", false, "Defer the dataset load until POST /api/v1/load")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, metricsHandler, err := newMetrics(cfg.Metrics.Backend)
	if err != nil {
		return err
	}

	rt, err := openRuntime(ctx, core.WithMetricsRecorder(metrics))
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("close runtime", zap.Error(err))
		}
	}()

	worker := explorer.NewWorker(rt.service, rt.blobs, explorer.WorkerOptions{
		Prefix:    cfg.Exports.Prefix,
		QueueSize: cfg.Exports.QueueSize,
		Logger:    logging.Adapt(logger.Named("exports")),
	})
	worker.Start()

	h := explorer.NewHandler(rt.service)
	h.Exports = worker
	h.Metrics = metricsHandler
	h.Logger = logging.Adapt(logger.Named("http"))

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: h.Handler(),
	}

	if !serveLazy {
		go func() {
			if _, err := rt.service.Load(ctx); err != nil {
				logger.Error("initial dataset load failed", zap.Error(err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			_ = worker.Stop(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := worker.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stop export worker: %w", err)
	}
	return nil
}

// newMetrics builds the operation recorder for backend and the handler that
// exposes it on /metrics.
func newMetrics(backend string) (core.MetricsRecorder, http.Handler, error) {
	switch strings.ToLower(backend) {
	case config.MetricsExpvar:
		return core.NewExpvarMetricsRecorder(""), expvar.Handler(), nil
	case config.MetricsPrometheus, "":
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec, err := core.NewPrometheusMetricsRecorder(reg)
		if err != nil {
			return nil, nil, fmt.Errorf("register metrics: %w", err)
		}
		return rec, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), nil
	default:
		return nil, nil, fmt.Errorf("unknown metrics backend %q", backend)
	}
}
