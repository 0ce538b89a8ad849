package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmunix/filmoteca/internal/database"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const movieColumns = `m.id, m.tmdb_id, m.title, m.slug, m.year, m.genre, m.summary, m.director,
	m.cast_json, m.duration, m.rating, m.rating_count, m.poster_path_local, m.poster_path_remote,
	m.poster_cached_at, m.created_at, m.updated_at`

// SQLRepository reads movies from the relational store.
type SQLRepository struct {
	db *database.DB
}

// NewSQLRepository creates a repository over an open, migrated database.
func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func (r *SQLRepository) Find(ctx context.Context, id int64) (*Movie, error) {
	return findOne(ctx, r.db, r.db.Dialect, "m.id = ?", id)
}

func (r *SQLRepository) FindBySlug(ctx context.Context, slug string) (*Movie, error) {
	return findOne(ctx, r.db, r.db.Dialect, "m.slug = ?", slug)
}

func findOne(ctx context.Context, q querier, d database.Dialect, cond string, arg any) (*Movie, error) {
	movies, err := queryMovies(ctx, q, d,
		"SELECT "+movieColumns+" FROM movies m WHERE "+cond+" LIMIT 1", arg)
	if err != nil {
		return nil, unavailable("find movie", err)
	}
	if len(movies) == 0 {
		return nil, ErrNotFound
	}
	return movies[0], nil
}

// whereClause is the SQL twin of matches. Needles are folded in Go and
// compared against folded columns, so both backends agree on case.
func whereClause(d database.Dialect, f Filter) (string, []any) {
	var conditions []string
	var args []any

	if f.Search != "" {
		needle := database.Fold(f.Search)
		conditions = append(conditions, "("+d.Contains("m.title")+" OR "+d.Contains("m.summary")+")")
		args = append(args, needle, needle)
	}
	if f.Genre != "" {
		needle := database.Fold(f.Genre)
		conditions = append(conditions, "("+d.Fold("m.genre")+" = ? OR EXISTS (SELECT 1 FROM movie_genres g WHERE g.movie_id = m.id AND "+d.Fold("g.name")+" = ?))")
		args = append(args, needle, needle)
	}
	if f.Year != 0 {
		conditions = append(conditions, "m.year = ?")
		args = append(args, f.Year)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *SQLRepository) Paginated(ctx context.Context, f Filter, page, perPage int) (*Page, error) {
	page, perPage = ClampPage(page, perPage)
	f = f.Normalize()

	total, err := r.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	meta := newMeta(page, perPage, total)
	if pastEnd(page, perPage, total) {
		return &Page{Data: []*Movie{}, Meta: meta}, nil
	}

	where, args := whereClause(r.db.Dialect, f)
	query := "SELECT " + movieColumns + " FROM movies m" + where +
		" ORDER BY m.year DESC, " + r.db.Dialect.Binary("m.title") + " ASC, m.id ASC LIMIT ? OFFSET ?"
	args = append(args, perPage, (page-1)*perPage)

	movies, err := queryMovies(ctx, r.db, r.db.Dialect, query, args...)
	if err != nil {
		return nil, unavailable("list movies", err)
	}
	return &Page{Data: movies, Meta: meta}, nil
}

func (r *SQLRepository) Count(ctx context.Context, f Filter) (int, error) {
	where, args := whereClause(r.db.Dialect, f.Normalize())
	var total int
	err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind("SELECT COUNT(*) FROM movies m"+where), args...).Scan(&total)
	if err != nil {
		return 0, unavailable("count movies", err)
	}
	return total, nil
}

func (r *SQLRepository) DistinctGenres(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT genre FROM movies UNION ALL SELECT name FROM movie_genres")
	if err != nil {
		return nil, unavailable("list genres", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, unavailable("scan genre", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list genres", err)
	}
	return collectGenres(names), nil
}

func (r *SQLRepository) Recent(ctx context.Context, limit int) ([]*Movie, error) {
	limit = max(1, limit)
	movies, err := queryMovies(ctx, r.db, r.db.Dialect,
		"SELECT "+movieColumns+" FROM movies m ORDER BY m.updated_at DESC, m.id ASC LIMIT ?", limit)
	if err != nil {
		return nil, unavailable("recent movies", err)
	}
	return movies, nil
}

// queryMovies runs a SELECT of movieColumns and attaches genre lists.
// Rows are closed before the genre query runs: SQLite is opened with a
// single connection.
func queryMovies(ctx context.Context, q querier, d database.Dialect, query string, args ...any) ([]*Movie, error) {
	rows, err := q.QueryContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	movies := []*Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	if err := attachGenres(ctx, q, d, movies); err != nil {
		return nil, err
	}
	for _, m := range movies {
		m.hydrate()
	}
	return movies, nil
}

func scanMovie(rows *sql.Rows) (*Movie, error) {
	var (
		m           Movie
		tmdbID      sql.NullInt64
		castJSON    string
		duration    sql.NullInt64
		rating      sql.NullFloat64
		ratingCount sql.NullInt64
		local       sql.NullString
		remote      sql.NullString
		cachedAt    sql.NullTime
	)
	err := rows.Scan(&m.ID, &tmdbID, &m.Title, &m.Slug, &m.Year, &m.Genre, &m.Summary, &m.Director,
		&castJSON, &duration, &rating, &ratingCount, &local, &remote,
		&cachedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan movie: %w", err)
	}

	if tmdbID.Valid {
		m.TMDBID = &tmdbID.Int64
	}
	if duration.Valid {
		m.Duration = ptr(int(duration.Int64))
	}
	if rating.Valid {
		m.Rating = &rating.Float64
	}
	if ratingCount.Valid {
		m.RatingCount = ptr(int(ratingCount.Int64))
	}
	if local.Valid && local.String != "" {
		m.PosterPathLocal = &local.String
	}
	if remote.Valid && remote.String != "" {
		m.PosterPathRemote = &remote.String
	}
	if cachedAt.Valid {
		t := cachedAt.Time.UTC()
		m.PosterCachedAt = &t
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()

	// A malformed cast column reads as an empty cast rather than failing the row.
	if err := json.Unmarshal([]byte(castJSON), &m.Cast); err != nil {
		m.Cast = []string{}
	}
	return &m, nil
}

func attachGenres(ctx context.Context, q querier, d database.Dialect, movies []*Movie) error {
	if len(movies) == 0 {
		return nil
	}
	byID := make(map[int64]*Movie, len(movies))
	placeholders := make([]string, 0, len(movies))
	args := make([]any, 0, len(movies))
	for _, m := range movies {
		if _, dup := byID[m.ID]; dup {
			continue
		}
		byID[m.ID] = m
		placeholders = append(placeholders, "?")
		args = append(args, m.ID)
	}

	rows, err := q.QueryContext(ctx, d.Rebind(
		"SELECT movie_id, name FROM movie_genres WHERE movie_id IN ("+strings.Join(placeholders, ", ")+") ORDER BY movie_id, position"),
		args...)
	if err != nil {
		return fmt.Errorf("load genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("scan genre: %w", err)
		}
		if m := byID[id]; m != nil {
			m.Genres = append(m.Genres, name)
		}
	}
	return rows.Err()
}
