package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps one file per entry under <dir>/<namespace>/<sha1(key)>.cache.
type FileStore struct {
	dir string
	options
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir, options: newOptions(opts)}, nil
}

func (s *FileStore) namespaceDir(namespace string) string {
	ns := strings.Trim(namespace, "/")
	ns = strings.ReplaceAll(ns, "..", "_")
	if ns == "" {
		ns = "default"
	}
	return filepath.Join(s.dir, ns)
}

func (s *FileStore) path(namespace, key string) string {
	return filepath.Join(s.namespaceDir(namespace), HashKey(key)+".cache")
}

// Get returns the cached value, deleting the file when it has expired.
func (s *FileStore) Get(_ context.Context, namespace, key string) ([]byte, bool) {
	path := s.path(namespace, key)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache read failed", "namespace", namespace, "error", err)
		}
		return nil, false
	}

	e, ok := decodeEntry(data)
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("cache evict failed", "namespace", namespace, "error", err)
		}
		return nil, false
	}
	return e.Value, true
}

// Set writes the entry atomically (temp file + rename) so a concurrent
// reader never sees a half-written payload.
func (s *FileStore) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	e, err := newEntry(value, ttl, s.now())
	if err != nil {
		return err
	}
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}

	dir := s.namespaceDir(namespace)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache namespace: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(namespace, key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Forget deletes the entry. Missing entries are not an error.
func (s *FileStore) Forget(_ context.Context, namespace, key string) error {
	err := os.Remove(s.path(namespace, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("forget cache entry: %w", err)
	}
	return nil
}

// Prune removes every expired entry and returns how many were deleted.
func (s *FileStore) Prune(ctx context.Context) (int64, error) {
	now := s.now()
	var removed int64
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || filepath.Ext(path) != ".cache" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if e, ok := decodeEntry(data); ok && e.expired(now) {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("prune cache: %w", err)
	}
	return removed, nil
}
