package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/filmoteca/internal/cache"
	"github.com/vmunix/filmoteca/internal/metrics"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func newLimiter(t *testing.T, opts ...Option) (*Limiter, *clock, cache.Store) {
	t.Helper()
	c := &clock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStore(cache.WithClock(c.Now))
	opts = append([]Option{WithClock(c.Now)}, opts...)
	return New(store, opts...), c, store
}

func TestLimiter_120thAcceptedAnd121stRejected(t *testing.T) {
	l, _, _ := newLimiter(t)
	ctx := context.Background()

	for i := 1; i <= 120; i++ {
		d, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, 120-i, d.Remaining)
	}

	rejectionsBefore := testutil.ToFloat64(metrics.RateLimitRejections)
	d, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 120, d.Limit)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, 60*time.Second)
	assert.Equal(t, rejectionsBefore+1, testutil.ToFloat64(metrics.RateLimitRejections))
}

func TestLimiter_WindowResets(t *testing.T) {
	l, c, _ := newLimiter(t, WithMax(2))
	ctx := context.Background()

	first, _ := l.Allow(ctx, "ip")
	assert.Equal(t, c.t.Unix()+60, first.Reset)
	_, _ = l.Allow(ctx, "ip")

	c.t = c.t.Add(30 * time.Second)
	d, _ := l.Allow(ctx, "ip")
	assert.False(t, d.Allowed)
	assert.Equal(t, 30*time.Second, d.RetryAfter)

	// The window is anchored to the first request, not the last.
	c.t = c.t.Add(30 * time.Second)
	d, _ = l.Allow(ctx, "ip")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, c.t.Unix()+60, d.Reset)
}

func TestLimiter_RetryAfterAtLeastOneSecond(t *testing.T) {
	l, c, _ := newLimiter(t, WithMax(1))
	ctx := context.Background()

	_, _ = l.Allow(ctx, "ip")
	c.t = c.t.Add(59*time.Second + 500*time.Millisecond)
	d, _ := l.Allow(ctx, "ip")
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Second, d.RetryAfter)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _, _ := newLimiter(t, WithMax(1))
	ctx := context.Background()

	a, _ := l.Allow(ctx, "10.0.0.1")
	b, _ := l.Allow(ctx, "10.0.0.2")
	assert.True(t, a.Allowed)
	assert.True(t, b.Allowed)

	a, _ = l.Allow(ctx, "10.0.0.1")
	assert.False(t, a.Allowed)
}

func TestLimiter_AnonymousBucket(t *testing.T) {
	l, _, store := newLimiter(t)
	_, err := l.Allow(context.Background(), "")
	require.NoError(t, err)

	b, ok := cache.GetJSON[Bucket](context.Background(), store, cache.NamespaceAPI, "movies:anonymous")
	require.True(t, ok)
	assert.Equal(t, 1, b.Count)
}

func TestLimiter_BucketExpiresWithWindow(t *testing.T) {
	l, c, store := newLimiter(t, WithWindow(10*time.Second))
	ctx := context.Background()

	_, _ = l.Allow(ctx, "ip")
	c.t = c.t.Add(10 * time.Second)
	_, ok := store.Get(ctx, cache.NamespaceAPI, "movies:ip")
	assert.False(t, ok, "bucket ttl is the remaining window")
}

func TestLimiter_CorruptBucketStartsFresh(t *testing.T) {
	l, _, store := newLimiter(t, WithMax(1))
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, cache.NamespaceAPI, "movies:ip", []byte(`"not a bucket"`), time.Minute))

	d, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}
