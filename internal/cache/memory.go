package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. Used by tests and when no
// writable cache location is available.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	options
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), options: newOptions(opts)}
}

func memoryKey(namespace, key string) string {
	return namespace + "\x00" + HashKey(key)
}

func (s *MemoryStore) Get(_ context.Context, namespace, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey(namespace, key)
	e, ok := s.entries[k]
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		delete(s.entries, k)
		return nil, false
	}
	return e.Value, true
}

func (s *MemoryStore) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	e, err := newEntry(value, ttl, s.now())
	if err != nil {
		return err
	}
	// Copy so later mutation of value by the caller cannot reach the store.
	e.Value = append([]byte(nil), e.Value...)

	s.mu.Lock()
	s.entries[memoryKey(namespace, key)] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Forget(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	delete(s.entries, memoryKey(namespace, key))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Prune(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed, nil
}
