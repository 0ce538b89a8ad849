// Package database opens the relational store behind the catalog and
// hides the differences between the SQLite and PostgreSQL dialects.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/vmunix/filmoteca/internal/config"
	"github.com/vmunix/filmoteca/internal/migrations"
)

// Dialect identifies the SQL flavour of an open database.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DB is a *sql.DB that knows its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the database described by cfg and pings it.
// It returns (nil, nil) when no database is configured.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	switch cfg.Mode() {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg)
	default:
		return nil, nil
	}
}

// OpenSQLite opens (creating if needed) a SQLite database file.
// ":memory:" is accepted for tests.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection: SQLite serialises writers anyway, and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{DB: db, Dialect: SQLite}, nil
}

// OpenPostgres opens a pgx-backed database/sql pool.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("pgx", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{DB: db, Dialect: Postgres}, nil
}

// PostgresDSN renders cfg as a postgres:// URL.
func PostgresDSN(cfg config.DatabaseConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.Itoa(port),
		Path:   "/" + cfg.Name,
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Migrate applies the embedded schema for the active dialect.
// Every statement is idempotent, so running it twice is harmless.
func (db *DB) Migrate(ctx context.Context) error {
	schema := migrations.SQLiteInitial
	if db.Dialect == Postgres {
		schema = migrations.PostgresInitial
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Rebind rewrites ? placeholders into the dialect's native form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Fold wraps a column expression in the dialect's case-folding function.
func (d Dialect) Fold(expr string) string {
	if d == Postgres {
		return "lower(" + expr + ")"
	}
	return "fold(" + expr + ")"
}

// Contains returns a predicate that is true when the folded column holds
// the (already folded) bound argument as a substring. No LIKE pattern is
// involved, so % and _ in user input match literally.
func (d Dialect) Contains(expr string) string {
	if d == Postgres {
		return "strpos(lower(" + expr + "), ?) > 0"
	}
	return "instr(fold(" + expr + "), ?) > 0"
}

// Binary returns expr with byte-order collation.
func (d Dialect) Binary(expr string) string {
	if d == Postgres {
		return expr + ` COLLATE "C"`
	}
	return expr + " COLLATE BINARY"
}

// ResetSequence realigns an identity sequence after rows were inserted
// with explicit ids. SQLite needs nothing.
func (d Dialect) ResetSequence(ctx context.Context, q interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, table string) error {
	if d != Postgres {
		return nil
	}
	_, err := q.ExecContext(ctx, fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))", table, table))
	if err != nil {
		return fmt.Errorf("reset %s sequence: %w", table, err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a unique or primary key violation.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// IsConstraintViolation reports whether err is a foreign key or check violation.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "FOREIGN KEY constraint failed") ||
		strings.Contains(msg, "CHECK constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23503") ||
		strings.Contains(msg, "SQLSTATE 23514")
}

// IsNoRows reports whether err is sql.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
