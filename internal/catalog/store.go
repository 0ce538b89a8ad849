package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vmunix/filmoteca/internal/database"
	"github.com/vmunix/filmoteca/internal/slug"
)

// mapError converts driver errors on the write path to catalog errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case database.IsNoRows(err):
		return ErrNotFound
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case database.IsConstraintViolation(err):
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	return err
}

// Store performs the administrative writes: seeding, TMDb sync, title
// linking and poster caching.
type Store struct {
	db  *database.DB
	now func() time.Time
}

// NewStore creates a new catalog store.
func NewStore(db *database.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, dialect: s.db.Dialect, now: s.now}, nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx interface {
		querier
		Commit() error
		Rollback() error
	}
	dialect database.Dialect
	now     func() time.Time
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

func castJSON(cast []string) string {
	if cast == nil {
		cast = []string{}
	}
	data, _ := json.Marshal(cast)
	return string(data)
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func insertMovie(ctx context.Context, q querier, d database.Dialect, now time.Time, m *Movie) error {
	if m.Slug == "" {
		m.Slug = slug.ForMovie(m.Title, m.Year)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}

	err := q.QueryRowContext(ctx, d.Rebind(`
		INSERT INTO movies (tmdb_id, title, slug, year, genre, summary, director, cast_json, duration,
			rating, rating_count, poster_path_local, poster_path_remote, poster_cached_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		m.TMDBID, m.Title, m.Slug, m.Year, m.Genre, m.Summary, m.Director, castJSON(m.Cast), nullableInt(m.Duration),
		m.Rating, nullableInt(m.RatingCount), m.PosterPathLocal, m.PosterPathRemote, m.PosterCachedAt,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert movie: %w", mapError(err))
	}
	return replaceGenres(ctx, q, d, m)
}

// Insert adds m, deriving its slug when empty, and sets ID and timestamps.
// The movie row and its genres are written in one transaction.
func (s *Store) Insert(ctx context.Context, m *Movie) (err error) {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.Insert(ctx, m); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Insert adds m within the transaction.
func (t *Tx) Insert(ctx context.Context, m *Movie) error {
	return insertMovie(ctx, t.tx, t.dialect, t.now(), m)
}

// upsertMovie writes m with its explicit id, replacing the row that has
// the same slug. The slug stays the row's identity: only the other
// columns are updated.
func upsertMovie(ctx context.Context, q querier, d database.Dialect, now time.Time, m *Movie) error {
	if m.Slug == "" {
		m.Slug = slug.ForMovie(m.Title, m.Year)
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = now
	}

	err := q.QueryRowContext(ctx, d.Rebind(`
		INSERT INTO movies (id, tmdb_id, title, slug, year, genre, summary, director, cast_json, duration,
			rating, rating_count, poster_path_local, poster_path_remote, poster_cached_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			tmdb_id = excluded.tmdb_id, title = excluded.title, year = excluded.year, genre = excluded.genre,
			summary = excluded.summary, director = excluded.director, cast_json = excluded.cast_json,
			duration = excluded.duration, rating = excluded.rating, rating_count = excluded.rating_count,
			poster_path_remote = excluded.poster_path_remote, updated_at = excluded.updated_at
		RETURNING id`),
		m.ID, m.TMDBID, m.Title, m.Slug, m.Year, m.Genre, m.Summary, m.Director, castJSON(m.Cast), nullableInt(m.Duration),
		m.Rating, nullableInt(m.RatingCount), m.PosterPathLocal, m.PosterPathRemote, m.PosterCachedAt,
		m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("upsert movie %s: %w", m.Slug, mapError(err))
	}
	return replaceGenres(ctx, q, d, m)
}

// Upsert writes m keyed by slug.
func (s *Store) Upsert(ctx context.Context, m *Movie) error {
	return upsertMovie(ctx, s.db, s.db.Dialect, s.now(), m)
}

// Upsert writes m keyed by slug within the transaction.
func (t *Tx) Upsert(ctx context.Context, m *Movie) error {
	return upsertMovie(ctx, t.tx, t.dialect, t.now(), m)
}

func replaceGenres(ctx context.Context, q querier, d database.Dialect, m *Movie) error {
	if _, err := q.ExecContext(ctx, d.Rebind("DELETE FROM movie_genres WHERE movie_id = ?"), m.ID); err != nil {
		return fmt.Errorf("clear genres: %w", mapError(err))
	}
	for i, name := range m.Genres {
		_, err := q.ExecContext(ctx, d.Rebind("INSERT INTO movie_genres (movie_id, position, name) VALUES (?, ?, ?)"),
			m.ID, i, name)
		if err != nil {
			return fmt.Errorf("insert genre: %w", mapError(err))
		}
	}
	return nil
}

// Seed upserts movies (SeedMovies by default) in one transaction and
// realigns the id sequence. Any failure rolls the whole batch back.
func (s *Store) Seed(ctx context.Context, movies []*Movie) (err error) {
	if movies == nil {
		movies = SeedMovies()
	}
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, m := range movies {
		if err = tx.Upsert(ctx, m.Clone()); err != nil {
			return err
		}
	}
	if err = s.db.Dialect.ResetSequence(ctx, tx.tx, "movies"); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

// MetadataUpdate carries the fields a TMDb sync may change. Nil fields
// keep the stored value.
type MetadataUpdate struct {
	Summary          *string
	Director         *string
	Duration         *int
	Rating           *float64
	RatingCount      *int
	PosterPathRemote *string
	Cast             []string // nil keeps the stored cast
}

func execOne(ctx context.Context, q querier, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateMetadata applies u to movie id and stamps updated_at.
func (s *Store) UpdateMetadata(ctx context.Context, id int64, u MetadataUpdate) error {
	var castArg any
	if u.Cast != nil {
		castArg = castJSON(u.Cast)
	}
	err := execOne(ctx, s.db, s.db.Dialect.Rebind(`
		UPDATE movies SET
			summary = COALESCE(?, summary),
			director = COALESCE(?, director),
			duration = COALESCE(?, duration),
			rating = COALESCE(?, rating),
			rating_count = COALESCE(?, rating_count),
			poster_path_remote = COALESCE(?, poster_path_remote),
			cast_json = COALESCE(?, cast_json),
			updated_at = ?
		WHERE id = ?`),
		u.Summary, u.Director, nullableInt(u.Duration), u.Rating, nullableInt(u.RatingCount),
		u.PosterPathRemote, castArg, s.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update metadata %d: %w", id, err)
	}
	return nil
}

// SetTMDBID links movie id to a TMDb entry.
func (s *Store) SetTMDBID(ctx context.Context, id, tmdbID int64) error {
	err := execOne(ctx, s.db, s.db.Dialect.Rebind("UPDATE movies SET tmdb_id = ?, updated_at = ? WHERE id = ?"),
		tmdbID, s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set tmdb id %d: %w", id, err)
	}
	return nil
}

// SetLocalPoster records a locally cached poster for movie id.
func (s *Store) SetLocalPoster(ctx context.Context, id int64, path string, cachedAt time.Time) error {
	err := execOne(ctx, s.db, s.db.Dialect.Rebind(
		"UPDATE movies SET poster_path_local = ?, poster_cached_at = ?, updated_at = ? WHERE id = ?"),
		path, cachedAt.UTC(), s.now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set local poster %d: %w", id, err)
	}
	return nil
}

// SyncQuery selects movies for a TMDb sync run.
type SyncQuery struct {
	Since *time.Time // delta mode: only movies updated at or after Since
	Limit int
}

// ListForSync returns linked movies, most recently updated first.
func (s *Store) ListForSync(ctx context.Context, q SyncQuery) ([]*Movie, error) {
	query := "SELECT " + movieColumns + " FROM movies m WHERE m.tmdb_id IS NOT NULL"
	var args []any
	if q.Since != nil {
		query += " AND m.updated_at >= ?"
		args = append(args, q.Since.UTC())
	}
	query += " ORDER BY m.updated_at DESC, m.id ASC LIMIT ?"
	args = append(args, max(1, q.Limit))

	movies, err := queryMovies(ctx, s.db, s.db.Dialect, query, args...)
	if err != nil {
		return nil, unavailable("list for sync", err)
	}
	return movies, nil
}

// ListUnlinked returns up to limit movies without a TMDb id.
func (s *Store) ListUnlinked(ctx context.Context, limit int) ([]*Movie, error) {
	movies, err := queryMovies(ctx, s.db, s.db.Dialect,
		"SELECT "+movieColumns+" FROM movies m WHERE m.tmdb_id IS NULL ORDER BY m.id ASC LIMIT ?", max(1, limit))
	if err != nil {
		return nil, unavailable("list unlinked", err)
	}
	return movies, nil
}

// ListWithRemotePoster returns linked movies that have a TMDb poster path.
func (s *Store) ListWithRemotePoster(ctx context.Context) ([]*Movie, error) {
	movies, err := queryMovies(ctx, s.db, s.db.Dialect,
		"SELECT "+movieColumns+" FROM movies m WHERE m.tmdb_id IS NOT NULL AND m.poster_path_remote IS NOT NULL AND m.poster_path_remote <> '' ORDER BY m.id ASC")
	if err != nil {
		return nil, unavailable("list posters", err)
	}
	return movies, nil
}
