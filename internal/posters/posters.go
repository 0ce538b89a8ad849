// Package posters prefetches TMDb poster images into the local assets
// directory so pages can be served without hotlinking.
package posters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/filmoteca/internal/catalog"
	"github.com/vmunix/filmoteca/internal/logging"
)

const (
	// CacheDir is the poster directory, relative to the assets root.
	CacheDir = "posters/cache"

	// MaxAge is how long a downloaded variant is considered fresh.
	MaxAge = 7 * 24 * time.Hour

	defaultConcurrency = 4
	maxImageBytes      = 10 << 20
)

// Resolver turns a TMDb poster path into a downloadable URL.
type Resolver interface {
	PosterURL(ctx context.Context, posterPath, size string) (string, error)
}

// Store is the part of catalog.Store the prefetcher uses.
type Store interface {
	ListWithRemotePoster(ctx context.Context) ([]*catalog.Movie, error)
	SetLocalPoster(ctx context.Context, id int64, path string, cachedAt time.Time) error
}

// Report summarises a run. Counts are per image file.
type Report struct {
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

func (r *Report) add(o Report) {
	r.Downloaded += o.Downloaded
	r.Skipped += o.Skipped
	r.Failed += o.Failed
}

// Fetcher downloads every poster size for linked movies.
type Fetcher struct {
	store       Store
	resolver    Resolver
	assetsDir   string
	client      *http.Client
	log         *slog.Logger
	now         func() time.Time
	concurrency int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.log = l }
}

// WithClock overrides time.Now (for tests).
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// WithConcurrency bounds the number of movies processed at once.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// New creates a Fetcher writing below assetsDir.
func New(store Store, resolver Resolver, assetsDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:       store,
		resolver:    resolver,
		assetsDir:   assetsDir,
		client:      &http.Client{Timeout: 30 * time.Second},
		log:         logging.Discard(),
		now:         time.Now,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.log = f.log.With("component", "posters")
	return f
}

// LocalPath is the poster_path_local recorded for a movie slug.
func LocalPath(slug string) string {
	return path.Join(CacheDir, slug+".jpg")
}

// Run processes every movie that has a TMDb poster. Failures are counted
// in the report; an error is returned only when the movie list cannot be
// read or ctx is canceled.
func (f *Fetcher) Run(ctx context.Context) (Report, error) {
	movies, err := f.store.ListWithRemotePoster(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list movies: %w", err)
	}
	if len(movies) == 0 {
		f.log.Info("no movies with tmdb posters")
		return Report{}, nil
	}
	if err := os.MkdirAll(filepath.Join(f.assetsDir, filepath.FromSlash(CacheDir)), 0755); err != nil {
		return Report{}, fmt.Errorf("create poster dir: %w", err)
	}

	var (
		mu     sync.Mutex
		report Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, m := range movies {
		g.Go(func() error {
			r := f.fetchMovie(gctx, m)
			mu.Lock()
			report.add(r)
			mu.Unlock()
			return gctx.Err()
		})
	}
	err = g.Wait()
	return report, err
}

// fetchMovie downloads the size variants of one poster. The first failure
// abandons the movie, which then keeps its previous local poster.
func (f *Fetcher) fetchMovie(ctx context.Context, m *catalog.Movie) Report {
	var r Report
	log := f.log.With("movie_id", m.ID, "slug", m.Slug)
	remote := *m.PosterPathRemote

	for _, size := range catalog.PosterSizes {
		target := f.absPath(catalog.LocalVariant(LocalPath(m.Slug), size))
		if f.fresh(target) {
			r.Skipped++
			continue
		}
		u, err := f.resolver.PosterURL(ctx, remote, size)
		if err != nil {
			log.Warn("poster url unavailable", "size", size, "error", err)
			r.Failed++
			return r
		}
		if err := f.download(ctx, u, target); err != nil {
			log.Warn("poster download failed", "size", size, "url", u, "error", err)
			r.Failed++
			return r
		}
		r.Downloaded++
	}

	variant := f.absPath(catalog.LocalVariant(LocalPath(m.Slug), catalog.DefaultPosterSize))
	if err := copyFile(variant, f.absPath(LocalPath(m.Slug))); err != nil {
		log.Warn("poster copy failed", "error", err)
		r.Failed++
		return r
	}
	if err := f.store.SetLocalPoster(ctx, m.ID, LocalPath(m.Slug), f.now()); err != nil {
		log.Warn("record local poster failed", "error", err)
		r.Failed++
		return r
	}
	log.Debug("poster cached", "downloaded", r.Downloaded, "skipped", r.Skipped)
	return r
}

func (f *Fetcher) absPath(rel string) string {
	return filepath.Join(f.assetsDir, filepath.FromSlash(rel))
}

func (f *Fetcher) fresh(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return f.now().Sub(info.ModTime()) < MaxAge
}

func (f *Fetcher) download(ctx context.Context, url, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return err
	}
	if len(data) > maxImageBytes {
		return errors.New("image too large")
	}
	if len(data) == 0 {
		return errors.New("empty image")
	}
	return writeFile(target, data)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return writeFile(dst, data)
}

// writeFile replaces p atomically.
func writeFile(p string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(p), ".poster-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}
