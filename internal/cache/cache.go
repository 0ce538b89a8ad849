// Package cache implements the namespaced TTL cache shared by the TMDb
// client and the API rate limiter.
//
// Entries expire lazily: a read that finds an expired entry deletes it and
// reports a miss. Nothing sweeps the store in the background, so entries
// that are never read again stay on disk until Prune is run.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"
)

// Namespaces used across the application.
const (
	NamespaceTMDB = "tmdb"
	NamespaceAPI  = "api"
)

// ErrInvalidValue is returned by Set when the value is not valid JSON.
var ErrInvalidValue = errors.New("cache value is not valid JSON")

// Store is a namespaced key/value cache with per-entry expiry.
// Get reports a miss for absent, corrupt and expired entries alike.
type Store interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	Forget(ctx context.Context, namespace, key string) error
}

// Pruner is implemented by stores that can drop every expired entry at once.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// Option configures a store.
type Option func(*options)

type options struct {
	now    func() time.Time
	logger *slog.Logger
}

// WithClock overrides time.Now (for tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger used for storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// HashKey returns the storage identity of a key.
func HashKey(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// entry is the persisted envelope. ExpiresAt is a unix timestamp in
// seconds, zero meaning the entry never expires.
type entry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt int64           `json:"expires_at"`
	StoredAt  string          `json:"stored_at"`
}

func newEntry(value []byte, ttl time.Duration, now time.Time) (entry, error) {
	if !json.Valid(value) {
		return entry{}, ErrInvalidValue
	}
	return entry{
		Value:     json.RawMessage(value),
		ExpiresAt: expiresAt(ttl, now),
		StoredAt:  now.UTC().Format(time.RFC3339),
	}, nil
}

// expiresAt converts a TTL into an absolute expiry. Sub-second TTLs round
// up to a full second; ttl <= 0 never expires.
func expiresAt(ttl time.Duration, now time.Time) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Unix() + int64(math.Ceil(ttl.Seconds()))
}

func (e entry) expired(now time.Time) bool {
	return e.ExpiresAt != 0 && now.Unix() >= e.ExpiresAt
}

// remaining returns the time left before expiry, 0 for entries that never expire.
func (e entry) remaining(now time.Time) time.Duration {
	if e.ExpiresAt == 0 {
		return 0
	}
	return time.Duration(e.ExpiresAt-now.Unix()) * time.Second
}

func decodeEntry(data []byte) (entry, bool) {
	var raw struct {
		Value     json.RawMessage `json:"value"`
		ExpiresAt *int64          `json:"expires_at"`
		StoredAt  string          `json:"stored_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || raw.ExpiresAt == nil || len(raw.Value) == 0 {
		return entry{}, false
	}
	return entry{Value: raw.Value, ExpiresAt: *raw.ExpiresAt, StoredAt: raw.StoredAt}, true
}

func encodeEntry(e entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return data, nil
}

// GetJSON reads a cached value and decodes it into T.
// A value that no longer decodes into T is reported as a miss.
func GetJSON[T any](ctx context.Context, s Store, namespace, key string) (T, bool) {
	var v T
	data, ok := s.Get(ctx, namespace, key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false
	}
	return v, true
}

// SetJSON encodes v and stores it.
func SetJSON(ctx context.Context, s Store, namespace, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return s.Set(ctx, namespace, key, data, ttl)
}

// Close releases the resources held by s, if any.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
