// Package server runs the HTTP daemon and its background maintenance.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/filmoteca/internal/cache"
	"github.com/vmunix/filmoteca/internal/logging"
)

// Config for the daemon.
type Config struct {
	Addr            string
	ShutdownTimeout time.Duration // default 30s
	PruneInterval   time.Duration // 0 disables cache pruning
}

// Runner serves HTTP until its context ends, then shuts down gracefully.
type Runner struct {
	handler http.Handler
	pruner  cache.Pruner
	config  Config
	logger  *slog.Logger
}

// NewRunner creates a new runner. pruner may be nil.
func NewRunner(handler http.Handler, pruner cache.Pruner, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Runner{
		handler: handler,
		pruner:  pruner,
		config:  cfg,
		logger:  logger,
	}
}

// Run listens on the configured address and blocks until ctx is canceled
// or the server fails.
func (r *Runner) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.Addr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve is Run on an existing listener. A clean shutdown returns nil.
func (r *Runner) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           r.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r.logger.Info("listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		r.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		r.logger.Info("server stopped")
		return nil
	})

	if r.pruner != nil && r.config.PruneInterval > 0 {
		g.Go(func() error {
			r.runPruner(gctx)
			return nil
		})
	}

	return g.Wait()
}

func (r *Runner) runPruner(ctx context.Context) {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()

	log := r.logger.With("component", "pruner")
	log.Info("cache pruner started", "interval", r.config.PruneInterval.String())

	for {
		select {
		case <-ctx.Done():
			log.Info("cache pruner stopped")
			return
		case <-ticker.C:
			n, err := r.pruner.Prune(ctx)
			if err != nil {
				log.Error("prune failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("pruned expired cache entries", "count", n)
			}
		}
	}
}
