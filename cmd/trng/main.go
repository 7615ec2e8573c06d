// Package main is the entry point for the trng application.
// trng draws true-random integers from random.org and serves them over HTTP.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/randomizedcoder/trng/internal/batch"
	"github.com/randomizedcoder/trng/internal/config"
	"github.com/randomizedcoder/trng/internal/randomorg"
	"github.com/randomizedcoder/trng/internal/server"
	"github.com/randomizedcoder/trng/internal/telemetry"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, "trng", version, cfg.OTelEndpoint)
	if err != nil {
		logger.Error("tracing setup failed", zap.Error(err))
		return 1
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("tracing shutdown failed", zap.Error(err))
		}
	}()

	fetcher := randomorg.NewHTTPFetcher(&http.Client{}, logger.Named("fetcher"))
	client := randomorg.New(fetcher,
		randomorg.WithEndpoint(cfg.Endpoint),
		randomorg.WithLogger(logger.Named("randomorg")),
	)
	runner := batch.NewRunner(client, logger.Named("batch"), batch.WithTimeout(cfg.Timeout))

	if cfg.Once {
		return drawOnce(ctx, runner, cfg, logger)
	}

	logger.Info("trng starting",
		zap.String("version", version),
		zap.String("endpoint", cfg.Endpoint),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("listen_port", cfg.ListenPort),
		zap.Int64("default_min", cfg.DefaultMin),
		zap.Int64("default_max", cfg.DefaultMax),
		zap.Bool("tracing", cfg.OTelEndpoint != ""),
	)

	srv := server.New(cfg.ListenPort, runner, server.Defaults{
		Min: cfg.DefaultMin,
		Max: cfg.DefaultMax,
	}, logger.Named("server"), server.WithFetchTimeout(cfg.Timeout))
	go func() {
		if err := srv.Start(ctx); err != nil {
			logger.Error("server failed", zap.Error(err))
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	srv.SetReady(false)
	logger.Info("readiness cleared, draining", zap.Bool("ready", srv.IsReady()))

	cancel()

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	logger.Info("trng stopped")
	return 0
}

// drawOnce performs a single draw and prints the result as JSON.
func drawOnce(ctx context.Context, runner *batch.Runner, cfg *config.Config, logger *zap.Logger) int {
	res, err := runner.Draw(ctx, batch.Item{Min: cfg.Min, Max: cfg.Max})
	if err != nil {
		ierr := batch.Wrap(0, err)
		logger.Error("draw failed",
			zap.String("category", string(ierr.Category)),
			zap.String("message", ierr.Message),
			zap.Error(err),
		)
		if ierr.Category == batch.CategoryInput {
			return 2
		}
		return 1
	}

	if err := json.NewEncoder(os.Stdout).Encode(res); err != nil {
		logger.Error("write result failed", zap.Error(err))
		return 1
	}
	return 0
}
