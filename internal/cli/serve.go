package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/attritionlab/attrition-engine/internal/api"
	"github.com/attritionlab/attrition-engine/internal/config"
	"github.com/attritionlab/attrition-engine/internal/metrics"
	"github.com/attritionlab/attrition-engine/internal/services"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC and HTTP service",
		Long: `Load the dataset and serve the AttritionEngine gRPC API, plus an HTTP
listener for /metrics, /healthz and CSV downloads under /api/v1/export.

Send SIGHUP to reload the dataset without restarting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), opts.cfg, opts.logger)
		},
	}
}

func serve(parent context.Context, cfg *config.Config, logger *slog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	logger.Info("starting attrition-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := api.NewServer(cfg.Server, services.NewGRPCService(logger, a.analytics))
	if err != nil {
		return fmt.Errorf("create gRPC server: %w", err)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A failed initial load keeps the service up and unhealthy until a reload
	// succeeds.
	if err := a.load(ctx); err != nil {
		logger.Error("initial dataset load failed", slog.Any("error", err))
	} else {
		server.SetServing(true)
	}

	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hangup:
				if _, err := a.analytics.Reload(ctx); err != nil {
					logger.Error("dataset reload failed", slog.Any("error", err))
					continue
				}
				server.SetServing(true)
			}
		}
	}()

	var httpServer *http.Server
	if cfg.Server.HTTPAddress != "" {
		httpServer = &http.Server{
			Addr:         cfg.Server.HTTPAddress,
			Handler:      api.NewHTTPHandler(a.analytics, prometheus.DefaultGatherer),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
		}
		go func() {
			logger.Info("http server listening", slog.String("address", cfg.Server.HTTPAddress))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("gRPC server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	server.Shutdown(shutdownCtx)

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("http server shutdown", slog.Any("error", err))
		}
	}

	logger.Info("attrition-engine stopped")
	return nil
}
