package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/vmunix/filmoteca/internal/database"
)

// SQLStore keeps entries in the cache_entries table of the catalog database.
type SQLStore struct {
	db *database.DB
	options
}

// NewSQLStore returns a store backed by db. The schema must already be migrated.
func NewSQLStore(db *database.DB, opts ...Option) *SQLStore {
	return &SQLStore{db: db, options: newOptions(opts)}
}

func (s *SQLStore) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	id := HashKey(key)
	var (
		value     string
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, s.db.Dialect.Rebind(
		"SELECT value, expires_at FROM cache_entries WHERE namespace = ? AND key = ?"),
		namespace, id,
	).Scan(&value, &expiresAt)
	if err != nil {
		if !database.IsNoRows(err) {
			s.logger.Warn("cache read failed", "namespace", namespace, "error", err)
		}
		return nil, false
	}

	e := entry{Value: []byte(value), ExpiresAt: expiresAt}
	if e.expired(s.now()) {
		if err := s.Forget(ctx, namespace, key); err != nil {
			s.logger.Warn("cache evict failed", "namespace", namespace, "error", err)
		}
		return nil, false
	}
	return e.Value, true
}

func (s *SQLStore) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	e, err := newEntry(value, ttl, now)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Dialect.Rebind(
		`INSERT INTO cache_entries (namespace, key, value, expires_at, stored_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET
		   value = excluded.value, expires_at = excluded.expires_at, stored_at = excluded.stored_at`),
		namespace, HashKey(key), string(e.Value), e.ExpiresAt, now.UTC(),
	)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *SQLStore) Forget(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx, s.db.Dialect.Rebind(
		"DELETE FROM cache_entries WHERE namespace = ? AND key = ?"), namespace, HashKey(key))
	if err != nil {
		return fmt.Errorf("cache forget: %w", err)
	}
	return nil
}

// Prune removes all expired entries.
// Returns the number of entries removed.
func (s *SQLStore) Prune(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.db.Dialect.Rebind(
		"DELETE FROM cache_entries WHERE expires_at <> 0 AND expires_at <= ?"), s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return result.RowsAffected()
}
