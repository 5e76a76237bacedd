package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thequantifier/quantifier/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	deps, err := NewDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := deps.rebuildSearchIndex(ctx); err != nil {
		logger.Warn("search index rebuild failed, continuing with empty index", slog.Any("error", err))
	}

	if err := deps.Scheduler.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting http server",
			slog.String("host", cfg.Server.Host),
			slog.Int("port", cfg.Server.Port))
		errCh <- deps.Server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := deps.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", slog.Any("error", err))
	}
	<-deps.Scheduler.Stop().Done()

	logger.Info("server stopped")
	return nil
}
