package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// BoltStore keeps entries in a single bbolt file, one bucket per namespace.
type BoltStore struct {
	db *bolt.DB
	options
}

// NewBoltStore opens (creating if needed) the bbolt file at path.
func NewBoltStore(path string, opts ...Option) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt cache: %w", err)
	}
	return &BoltStore{db: db, options: newOptions(opts)}, nil
}

func (s *BoltStore) Get(_ context.Context, namespace, key string) ([]byte, bool) {
	id := []byte(HashKey(key))
	var (
		e     entry
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return nil
		}
		data := b.Get(id)
		if data == nil {
			return nil
		}
		// data is only valid inside the transaction; decodeEntry copies.
		e, found = decodeEntry(data)
		return nil
	})
	if err != nil {
		s.logger.Warn("cache read failed", "namespace", namespace, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	if e.expired(s.now()) {
		if err := s.Forget(context.Background(), namespace, key); err != nil {
			s.logger.Warn("cache evict failed", "namespace", namespace, "error", err)
		}
		return nil, false
	}
	return e.Value, true
}

func (s *BoltStore) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	e, err := newEntry(value, ttl, s.now())
	if err != nil {
		return err
	}
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(namespace))
		if err != nil {
			return err
		}
		return b.Put([]byte(HashKey(key)), data)
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *BoltStore) Forget(_ context.Context, namespace, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(namespace))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(HashKey(key)))
	})
	if err != nil {
		return fmt.Errorf("cache forget: %w", err)
	}
	return nil
}

// Prune walks every bucket and removes expired entries.
func (s *BoltStore) Prune(_ context.Context) (int64, error) {
	now := s.now()
	var removed int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.ForEach(func(_ []byte, b *bolt.Bucket) error {
			var stale [][]byte
			err := b.ForEach(func(k, v []byte) error {
				if e, ok := decodeEntry(v); ok && e.expired(now) {
					stale = append(stale, append([]byte(nil), k...))
				}
				return nil
			})
			if err != nil {
				return err
			}
			// Deleting while iterating with ForEach is not allowed.
			for _, k := range stale {
				if err := b.Delete(k); err != nil {
					return err
				}
				removed++
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return removed, nil
}

// Close closes the underlying bbolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
