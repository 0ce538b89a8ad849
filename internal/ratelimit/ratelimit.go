// Package ratelimit implements the fixed-window request limiter that guards
// the public movies API. Buckets live in the shared TTL cache.
//
// The window is anchored to the first request a client makes after the
// previous window ended, so a client can burst up to twice the limit
// across a window boundary. The read-modify-write on a bucket is not
// atomic either: concurrent requests from one client may both read the
// same count. Both are accepted imprecisions of an advisory limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/vmunix/filmoteca/internal/cache"
	"github.com/vmunix/filmoteca/internal/metrics"
)

const (
	DefaultMax    = 120
	DefaultWindow = 60 * time.Second

	// Anonymous identifies clients whose address is unknown.
	Anonymous = "anonymous"

	keyPrefix = "movies:"
)

// Bucket is the persisted per-client counter. Reset is a unix timestamp.
type Bucket struct {
	Count int   `json:"count"`
	Reset int64 `json:"reset"`
}

// Decision is the outcome of Allow.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      int64         // unix seconds at which the window ends
	RetryAfter time.Duration // set when rejected
}

// Limiter counts requests per client in fixed windows.
type Limiter struct {
	store  cache.Store
	max    int
	window time.Duration
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithMax sets the number of requests allowed per window.
func WithMax(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.max = n
		}
	}
}

// WithWindow sets the window length. It is truncated to whole seconds.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d >= time.Second {
			l.window = d.Truncate(time.Second)
		}
	}
}

// WithClock overrides time.Now (for tests).
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New creates a limiter storing its buckets in store.
func New(store cache.Store, opts ...Option) *Limiter {
	l := &Limiter{
		store:  store,
		max:    DefaultMax,
		window: DefaultWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Limit returns the number of requests allowed per window.
func (l *Limiter) Limit() int {
	return l.max
}

// Allow records a request from clientID and reports whether it may proceed.
// An error is returned only when the updated bucket could not be stored;
// the decision is still valid in that case.
func (l *Limiter) Allow(ctx context.Context, clientID string) (Decision, error) {
	if clientID == "" {
		clientID = Anonymous
	}
	key := keyPrefix + clientID
	now := l.now().Unix()

	b, ok := cache.GetJSON[Bucket](ctx, l.store, cache.NamespaceAPI, key)
	if !ok || b.Reset <= now {
		b = Bucket{Count: 0, Reset: now + int64(l.window/time.Second)}
	}

	if b.Count >= l.max {
		metrics.RateLimitRejections.Inc()
		return Decision{
			Allowed:    false,
			Limit:      l.max,
			Remaining:  0,
			Reset:      b.Reset,
			RetryAfter: time.Duration(max(1, b.Reset-now)) * time.Second,
		}, nil
	}

	b.Count++
	d := Decision{
		Allowed:   true,
		Limit:     l.max,
		Remaining: max(0, l.max-b.Count),
		Reset:     b.Reset,
	}
	ttl := time.Duration(max(1, b.Reset-now)) * time.Second
	if err := cache.SetJSON(ctx, l.store, cache.NamespaceAPI, key, b, ttl); err != nil {
		return d, fmt.Errorf("store rate limit bucket: %w", err)
	}
	return d, nil
}
