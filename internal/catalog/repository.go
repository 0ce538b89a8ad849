package catalog

import (
	"context"

	"github.com/vmunix/filmoteca/internal/database"
)

// Repository is the read contract shared by the SQL and in-memory
// backends. Both apply identical filter, order and pagination rules.
type Repository interface {
	// Find returns ErrNotFound when no movie has the id.
	Find(ctx context.Context, id int64) (*Movie, error)
	// FindBySlug returns ErrNotFound when no movie has the slug.
	FindBySlug(ctx context.Context, slug string) (*Movie, error)
	// Paginated clamps page and perPage (see ClampPage) and returns the
	// requested window with its Meta. A page past the end is empty.
	Paginated(ctx context.Context, f Filter, page, perPage int) (*Page, error)
	Count(ctx context.Context, f Filter) (int, error)
	DistinctGenres(ctx context.Context) ([]string, error)
	Recent(ctx context.Context, limit int) ([]*Movie, error)
}

// Backend names reported by BackendOf.
const (
	BackendSQL    = "sql"
	BackendMemory = "memory"
)

// Select returns the SQL repository over db, or the seeded in-memory
// repository when no database is configured.
func Select(db *database.DB) Repository {
	if db == nil {
		return NewMemoryRepository(SeedMovies())
	}
	return NewSQLRepository(db)
}

// BackendOf reports which backend r is.
func BackendOf(r Repository) string {
	if _, ok := r.(*SQLRepository); ok {
		return BackendSQL
	}
	return BackendMemory
}
