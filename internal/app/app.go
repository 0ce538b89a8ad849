// Package app wires a loaded Config into the components shared by the
// daemon and the admin CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vmunix/filmoteca/internal/cache"
	"github.com/vmunix/filmoteca/internal/catalog"
	"github.com/vmunix/filmoteca/internal/config"
	"github.com/vmunix/filmoteca/internal/database"
	"github.com/vmunix/filmoteca/internal/ratelimit"
	"github.com/vmunix/filmoteca/internal/tmdb"
)

// ErrNoDatabase is returned by operations that need a relational database
// when none is configured.
var ErrNoDatabase = errors.New("no database configured")

// Options tune Open.
type Options struct {
	// RequireDB turns an unreachable database into an error instead of a
	// fall back to the built-in catalog.
	RequireDB bool
}

// App holds the long-lived components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *database.DB // nil when serving the built-in catalog
	Cache   cache.Store
	TMDB    *tmdb.Client
	Catalog *catalog.Service
}

// Open connects the database (migrating it), the cache and the TMDb
// client, and selects the catalog backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	db, err := database.Open(ctx, cfg.Database)
	switch {
	case err != nil && opts.RequireDB:
		return nil, fmt.Errorf("database: %w", err)
	case err != nil:
		logger.Error("database unavailable, serving the built-in catalog", "error", err)
	case db != nil:
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.DB = db
	case opts.RequireDB:
		return nil, ErrNoDatabase
	}

	store, err := cache.Open(ctx, cfg.Cache, a.DB, cache.WithLogger(logger.With("component", "cache")))
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("cache: %w", err)
	}
	a.Cache = store

	a.TMDB = tmdb.New(cfg.TMDB, cfg.Server.AppURL, a.Cache, logger)
	posters := catalog.NewPosterBuilder(cfg.Server.AppURL, cfg.Server.AssetsDir, cfg.TMDB.RemoteImages(), a.TMDB)
	a.Catalog = catalog.NewService(catalog.Select(a.DB), posters)

	logger.Debug("app ready",
		"storage", catalog.BackendOf(a.Catalog.Repository()),
		"cache", cfg.Cache.Driver,
		"tmdb", a.TMDB.Configured(),
	)
	return a, nil
}

// Store returns the write store, or ErrNoDatabase.
func (a *App) Store() (*catalog.Store, error) {
	if a.DB == nil {
		return nil, ErrNoDatabase
	}
	return catalog.NewStore(a.DB), nil
}

// Limiter returns the API rate limiter and whether it is enabled.
func (a *App) Limiter() (*ratelimit.Limiter, bool) {
	rl := a.Config.RateLimit
	if !rl.IsEnabled() {
		return nil, false
	}
	return ratelimit.New(a.Cache, ratelimit.WithMax(rl.Max), ratelimit.WithWindow(rl.Window)), true
}

// Close releases the cache and the database.
func (a *App) Close() error {
	var errs []error
	if a.Cache != nil {
		errs = append(errs, cache.Close(a.Cache))
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
