package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vmunix/filmoteca/internal/catalog"
	"github.com/vmunix/filmoteca/internal/config"
	"github.com/vmunix/filmoteca/internal/ratelimit"
	"github.com/vmunix/filmoteca/internal/tmdb"
)

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . Limiter,Metadata

// ErrMissingDependency is returned when a required dependency is nil.
var ErrMissingDependency = errors.New("missing required dependency")

// Metadata is the TMDb surface the API reads from.
type Metadata interface {
	Configured() bool
	GetMovie(ctx context.Context, tmdbID int64, appendFields ...string) (*tmdb.Movie, error)
	PosterURL(ctx context.Context, posterPath, size string) (string, error)
}

// Limiter decides whether a client may call the listing endpoint.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (ratelimit.Decision, error)
}

// ServerDeps contains all dependencies for the API server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type ServerDeps struct {
	// Required dependencies
	Catalog *catalog.Service
	Config  *config.Config

	// Optional dependencies
	Limiter  Limiter      // nil disables rate limiting
	Metadata Metadata     // nil disables TMDb enrichment
	Logger   *slog.Logger // nil discards logs
}

// Validate checks that all required dependencies are provided.
func (d ServerDeps) Validate() error {
	if d.Catalog == nil {
		return fmt.Errorf("%w: catalog service is required", ErrMissingDependency)
	}
	if d.Config == nil {
		return fmt.Errorf("%w: config is required", ErrMissingDependency)
	}
	return nil
}
