package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mhmdnab/tolabi/config"
	"github.com/mhmdnab/tolabi/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Replaced once the configured level and format are known.
	logger := bootstrap.InitLogger(config.LoggingConfig{})
	err := run(ctx, logger)
	stop()
	if err != nil {
		slog.Default().ErrorContext(context.Background(), "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.Observability.Logging)
	logStartupInfo(ctx, logger, &cfg)

	services, err := bootstrap.BuildServices(ctx, bootstrap.ServiceDeps{Config: &cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close services failed", "error", cerr)
		}
	}()

	if err := bootstrap.Run(ctx, bootstrap.RunConfig{Config: &cfg, Services: services, Logger: logger}); err != nil {
		return err
	}
	logger.InfoContext(context.WithoutCancel(ctx), "shutdown complete")
	return nil
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting tolabi admin console",
		"addr", cfg.HTTP.Addr,
		"backend", cfg.Backend.BaseURL,
		"backend_timeout", cfg.Backend.Timeout,
		"session_store", string(cfg.Session.Store),
		"session_ttl", cfg.Session.TTL,
		"dev", cfg.IsDev,
	)
}
