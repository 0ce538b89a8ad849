package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vmunix/filmoteca/internal/database"
)

// setupTestDB returns a migrated in-memory SQLite database.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

// setupSeededDB returns a database holding the seed catalog.
func setupSeededDB(t *testing.T) *database.DB {
	t.Helper()
	db := setupTestDB(t)
	require.NoError(t, NewStore(db).Seed(context.Background(), nil))
	return db
}

// repositories returns both backends loaded with the seed catalog.
func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	return map[string]Repository{
		BackendMemory: NewMemoryRepository(SeedMovies()),
		BackendSQL:    NewSQLRepository(setupSeededDB(t)),
	}
}

func ids(movies []*Movie) []int64 {
	out := make([]int64, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}
