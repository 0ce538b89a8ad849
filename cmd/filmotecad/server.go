package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/vmunix/filmoteca/internal/api"
	"github.com/vmunix/filmoteca/internal/app"
	"github.com/vmunix/filmoteca/internal/cache"
	"github.com/vmunix/filmoteca/internal/config"
	"github.com/vmunix/filmoteca/internal/logging"
	"github.com/vmunix/filmoteca/internal/server"
)

const pruneInterval = time.Hour

func runServer(configPath string) error {
	// Load config
	if configPath == "" {
		discovered, err := config.Discover()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		configPath = discovered
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.WriteReport(os.Stderr)
		}
		return fmt.Errorf("config: %w", err)
	}

	// Create logger
	logger := logging.New(os.Stdout, cfg.Server.LogLevel, cfg.Server.LogFormat)
	for _, w := range cfg.Warnings() {
		logger.Warn("config", "warning", w)
	}
	if configPath == "" {
		logger.Info("no config file found, using defaults and environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Components ===
	a, err := app.Open(ctx, cfg, logger, app.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	deps := api.ServerDeps{
		Catalog:  a.Catalog,
		Config:   cfg,
		Metadata: a.TMDB,
		Logger:   logger,
	}
	if limiter, ok := a.Limiter(); ok {
		deps.Limiter = limiter
	}
	handler, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	var pruner cache.Pruner
	if p, ok := a.Cache.(cache.Pruner); ok {
		pruner = p
	}
	runner := server.NewRunner(handler, pruner, server.Config{
		Addr:            addr,
		ShutdownTimeout: 30 * time.Second,
		PruneInterval:   pruneInterval,
	}, logger)

	logger.Info("starting filmotecad", "version", version, "addr", addr, "app_url", cfg.Server.AppURL)
	return runner.Run(ctx)
}
