package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in redis under <prefix><namespace>:<sha1(key)>.
// Expiry is delegated to redis as well; the envelope's expires_at is kept
// so payloads stay portable between backends.
type RedisStore struct {
	client *redis.Client
	prefix string
	options
}

// NewRedisStore connects to the server at url (redis://...) and pings it.
func NewRedisStore(ctx context.Context, url, prefix string, opts ...Option) (*RedisStore, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(ropts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, prefix: prefix, options: newOptions(opts)}, nil
}

func (s *RedisStore) key(namespace, key string) string {
	return s.prefix + namespace + ":" + HashKey(key)
}

func (s *RedisStore) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	k := s.key(namespace, key)
	data, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed", "namespace", namespace, "error", err)
		}
		return nil, false
	}
	e, ok := decodeEntry(data)
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		s.client.Del(ctx, k)
		return nil, false
	}
	return e.Value, true
}

func (s *RedisStore) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	now := s.now()
	e, err := newEntry(value, ttl, now)
	if err != nil {
		return err
	}
	data, err := encodeEntry(e)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(namespace, key), data, e.remaining(now)).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *RedisStore) Forget(ctx context.Context, namespace, key string) error {
	if err := s.client.Del(ctx, s.key(namespace, key)).Err(); err != nil {
		return fmt.Errorf("cache forget: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
