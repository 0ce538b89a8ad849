package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/vmunix/filmoteca/internal/config"
	"github.com/vmunix/filmoteca/internal/database"
	"github.com/vmunix/filmoteca/internal/metrics"
)

// Open builds the store selected by cfg.Driver and wraps it with hit/miss
// counters. db is only used by the sql driver and may be nil otherwise.
func Open(ctx context.Context, cfg config.CacheConfig, db *database.DB, opts ...Option) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case config.CacheFile, "":
		s, err = NewFileStore(cfg.Dir, opts...)
	case config.CacheBolt:
		s, err = NewBoltStore(filepath.Join(cfg.Dir, "cache.db"), opts...)
	case config.CacheRedis:
		s, err = NewRedisStore(ctx, cfg.RedisURL, cfg.Prefix, opts...)
	case config.CacheSQL:
		if db == nil {
			return nil, errors.New("cache driver sql requires a database")
		}
		s = NewSQLStore(db, opts...)
	case config.CacheMemory:
		s = NewMemoryStore(opts...)
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s), nil
}

// Instrument wraps s so every Get is counted in metrics.CacheRequests.
func Instrument(s Store) Store {
	if _, ok := s.(*instrumented); ok {
		return s
	}
	return &instrumented{Store: s}
}

type instrumented struct {
	Store
}

func (i *instrumented) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	v, ok := i.Store.Get(ctx, namespace, key)
	result := "miss"
	if ok {
		result = "hit"
	}
	metrics.CacheRequests.WithLabelValues(namespace, result).Inc()
	return v, ok
}

// Prune forwards to the wrapped store when it supports pruning.
func (i *instrumented) Prune(ctx context.Context) (int64, error) {
	if p, ok := i.Store.(Pruner); ok {
		return p.Prune(ctx)
	}
	return 0, nil
}

func (i *instrumented) Close() error {
	return Close(i.Store)
}
