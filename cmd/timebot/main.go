package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timebot/internal/app"
	"timebot/internal/config"
	"timebot/internal/migrate"
)

func main() {
	// Flags
	addr := flag.String("addr", "", "HTTP listen address (overrides HTTP_ADDR)")
	migrateOnly := flag.Bool("migrate", false, "Apply database migrations and exit")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	flag.Parse()

	// Logger
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	// Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		if err := migrate.Run(ctx, cfg.Store.Driver, cfg.DSN(), logger); err != nil {
			logger.Error("migration failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("migrations applied", slog.String("driver", cfg.Store.Driver))
		return
	}

	// App
	application, err := app.New(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to initialize app", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close failed", slog.String("error", err.Error()))
		}
	}()

	srv := application.HTTPServer(cfg.HTTP.Addr)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.HTTP.Addr), slog.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
