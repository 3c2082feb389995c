package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/replirouter/internal/config"
	"github.com/rickgao/replirouter/internal/connection"
	"github.com/rickgao/replirouter/internal/metrics"
	"github.com/rickgao/replirouter/internal/model"
	"github.com/rickgao/replirouter/internal/poller"
	"github.com/rickgao/replirouter/internal/routing"
	"github.com/rickgao/replirouter/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/replirouter.local.yaml", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config", *configPath)
		os.Exit(1)
	}

	// Set up structured logging
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting replirouter",
		"version", version.Version,
		"commit", version.Commit,
		"instance_id", cfg.Instance.ID,
		"config", *configPath,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	m := metrics.DefaultRegistry()
	registry := connection.NewRegistry(
		connection.WithLogger(logger),
		connection.WithMetrics(m),
	)
	defer registry.Close()

	handler := routing.NewHandler(registry,
		routing.WithLogger(logger),
		routing.WithMetrics(m),
	)

	models, err := establishModels(ctx, cfg, handler, logger)
	if err != nil {
		logger.Error("failed to establish models", "error", err)
		os.Exit(1)
	}
	defer func() {
		for _, md := range models {
			md.Close()
		}
	}()

	targets := make([]poller.Target, len(models))
	for i, md := range models {
		targets[i] = md
	}
	healthPoller := poller.New(poller.DefaultConfig(), targets, m, logger)
	if err := healthPoller.Start(ctx); err != nil {
		logger.Error("failed to start health poller", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		healthPoller.Stop(stopCtx)
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           newServeMux(models, healthPoller, m, cfg.Metrics.Path),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting http server", "port", cfg.Metrics.Port, "metrics_path", cfg.Metrics.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	logger.Info("replirouter running",
		"models", len(models),
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}

	logger.Info("replirouter stopped")
}

// establishModels creates and establishes one Model per configured model,
// in name order. On failure the models established so far are closed.
func establishModels(ctx context.Context, cfg *config.Config, handler *routing.Handler, logger *slog.Logger) ([]*model.Model, error) {
	var models []*model.Model
	for _, id := range cfg.ModelIDs() {
		md := model.New(id, model.NewPoolManager(nil, logger), handler)
		if err := md.EstablishConnection(ctx, cfg.Models[id]); err != nil {
			for _, established := range models {
				established.Close()
			}
			md.Close()
			return nil, fmt.Errorf("model %s: %w", id, err)
		}
		models = append(models, md)
	}
	return models, nil
}
