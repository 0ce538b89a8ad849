package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/filmoteca/internal/api/mocks"
	"github.com/vmunix/filmoteca/internal/cache"
	"github.com/vmunix/filmoteca/internal/catalog"
	"github.com/vmunix/filmoteca/internal/config"
	"github.com/vmunix/filmoteca/internal/metrics"
	"github.com/vmunix/filmoteca/internal/ratelimit"
	"github.com/vmunix/filmoteca/internal/tmdb"
)

const testAppURL = "https://filmoteca.example"

func newTestServer(t *testing.T, mutate func(*ServerDeps)) *Server {
	t.Helper()
	repo := catalog.NewMemoryRepository(catalog.SeedMovies())
	deps := ServerDeps{
		Catalog: catalog.NewService(repo, catalog.NewPosterBuilder(testAppURL, t.TempDir(), false, nil)),
		Config:  &config.Config{Server: config.ServerConfig{AppURL: testAppURL}},
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv, err := New(deps)
	require.NoError(t, err)
	return srv
}

// get performs a GET; headers are given as name, value pairs.
func get(srv http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type failingRepo struct{}

func (failingRepo) Find(context.Context, int64) (*catalog.Movie, error) {
	return nil, catalog.ErrUnavailable
}
func (failingRepo) FindBySlug(context.Context, string) (*catalog.Movie, error) {
	return nil, catalog.ErrUnavailable
}
func (failingRepo) Paginated(context.Context, catalog.Filter, int, int) (*catalog.Page, error) {
	return nil, catalog.ErrUnavailable
}
func (failingRepo) Count(context.Context, catalog.Filter) (int, error) {
	return 0, catalog.ErrUnavailable
}
func (failingRepo) DistinctGenres(context.Context) ([]string, error) {
	return nil, catalog.ErrUnavailable
}
func (failingRepo) Recent(context.Context, int) ([]*catalog.Movie, error) {
	return nil, catalog.ErrUnavailable
}

func TestServerDeps_Validate(t *testing.T) {
	_, err := New(ServerDeps{Config: &config.Config{}})
	assert.ErrorIs(t, err, ErrMissingDependency)

	_, err = New(ServerDeps{Catalog: catalog.NewService(catalog.NewMemoryRepository(nil), nil)})
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestListMovies_Defaults(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(srv, "/api/movies")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=120, stale-while-revalidate=60", w.Header().Get("Cache-Control"))
	assert.Equal(t, "Filmoteca", w.Header().Get("X-Application-Name"))
	assert.True(t, strings.HasPrefix(w.Header().Get("ETag"), `W/"`))
	assert.Empty(t, w.Header().Get("Link"))

	resp := decode[listResponse](t, w)
	require.Len(t, resp.Data, 5)
	assert.Equal(t, catalog.Meta{Page: 1, PerPage: 12, Total: 5, TotalPages: 1}, resp.Meta)
	assert.Equal(t, testAppURL+"/api/movies?page=1", resp.Links.Self)
	assert.Nil(t, resp.Links.Prev)
	assert.Nil(t, resp.Links.Next)

	first := resp.Data[0]
	assert.Equal(t, "Inception", first.Title)
	assert.Equal(t, testAppURL+"/film/1/inception-2010", first.Links.Self)
	require.NotNil(t, first.AggregateRating)
	assert.Equal(t, 8.3, first.AggregateRating.RatingValue)
	assert.Equal(t, 32000, first.AggregateRating.RatingCount)
	assert.Nil(t, first.TMDB)
	assert.Equal(t, "Il padrino", resp.Data[4].Title)
}

func TestListMovies_Filters(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		query string
		want  []string
	}{
		{"genre=crime", []string{"Il padrino"}},
		{"genre=science+fiction", []string{"Inception", "Matrix"}},
		{"search=neo", []string{"Matrix"}},
		{"year=1993", []string{"Schindler's List"}},
		{"year=abc", []string{"Inception", "Il favoloso mondo di Amélie", "Matrix", "Schindler's List", "Il padrino"}},
		{"genre=drama&year=1972", []string{"Il padrino"}},
		{"search=zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp := decode[listResponse](t, get(srv, "/api/movies?"+tt.query))
			titles := []string{}
			for _, m := range resp.Data {
				titles = append(titles, m.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestListMovies_PaginationLinks(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(srv, "/api/movies?per_page=2&page=2&search=")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listResponse](t, w)

	assert.Equal(t, catalog.Meta{Page: 2, PerPage: 2, Total: 5, TotalPages: 3}, resp.Meta)
	assert.Equal(t, testAppURL+"/api/movies?page=2&per_page=2&search=", resp.Links.Self)
	require.NotNil(t, resp.Links.Prev)
	require.NotNil(t, resp.Links.Next)
	assert.Equal(t, testAppURL+"/api/movies?page=1&per_page=2&search=", *resp.Links.Prev)
	assert.Equal(t, testAppURL+"/api/movies?page=3&per_page=2&search=", *resp.Links.Next)
	assert.Equal(t,
		`<`+*resp.Links.Prev+`>; rel="prev", <`+*resp.Links.Next+`>; rel="next"`,
		w.Header().Get("Link"))

	w = get(srv, "/api/movies?per_page=2&page=3")
	assert.Equal(t, `<`+testAppURL+`/api/movies?page=2&per_page=2>; rel="prev"`, w.Header().Get("Link"))
}

func TestListMovies_PerPageClamp(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := decode[listResponse](t, get(srv, "/api/movies?per_page=100"))
	assert.Equal(t, 30, resp.Meta.PerPage)

	resp = decode[listResponse](t, get(srv, "/api/movies?per_page=0&page=-4"))
	assert.Equal(t, 1, resp.Meta.PerPage)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Len(t, resp.Data, 1)
}

func TestListMovies_PastLastPage(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(srv, "/api/movies?page=9")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listResponse](t, w)
	assert.Empty(t, resp.Data)
	assert.Nil(t, resp.Links.Next)
	require.NotNil(t, resp.Links.Prev)
	assert.Equal(t, testAppURL+"/api/movies?page=8", *resp.Links.Prev)
}

func TestListMovies_HugePage(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(srv, "/api/movies?page=9223372036854775807")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listResponse](t, w)
	assert.Empty(t, resp.Data)
	assert.Equal(t, math.MaxInt, resp.Meta.Page)
	assert.Nil(t, resp.Links.Next)
	require.NotNil(t, resp.Links.Prev)
	assert.Equal(t, testAppURL+"/api/movies?page=9223372036854775806", *resp.Links.Prev)
}

func TestListMovies_UnescapedJSON(t *testing.T) {
	srv := newTestServer(t, nil)

	body := get(srv, "/api/movies?year=2001").Body.String()
	assert.Contains(t, body, "Il favoloso mondo di Amélie")
	assert.Contains(t, body, `"https://filmoteca.example/film/4/il-favoloso-mondo-di-amelie-2001"`)
	assert.Contains(t, body, "l'amore")
	assert.NotContains(t, body, `\u00e9`)
	assert.NotContains(t, body, `\/`)
}

func TestListMovies_ETagNotModified(t *testing.T) {
	srv := newTestServer(t, nil)

	first := get(srv, "/api/movies?genre=drama")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, weakETag(first.Body.Bytes()), etag)

	second := get(srv, "/api/movies?genre=drama", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.String())
	assert.Equal(t, etag, second.Header().Get("ETag"))
	assert.Equal(t, first.Header().Get("Cache-Control"), second.Header().Get("Cache-Control"))
	assert.Equal(t, "Filmoteca", second.Header().Get("X-Application-Name"))

	stale := get(srv, "/api/movies?genre=drama", "If-None-Match", `W/"0000"`)
	assert.Equal(t, http.StatusOK, stale.Code)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(srv, "/api/movies", "Origin", testAppURL)
	assert.Equal(t, testAppURL, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	w = get(srv, "/api/movie?id=1", "Origin", testAppURL)
	assert.Equal(t, testAppURL, w.Header().Get("Access-Control-Allow-Origin"))

	w = get(srv, "/api/movies", "Origin", "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Vary"))

	w = get(srv, "/api/movies")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAppOrigin(t *testing.T) {
	tests := map[string]string{
		"https://filmoteca.example":          "https://filmoteca.example",
		"http://localhost:8080/sub/path?x=1": "http://localhost:8080",
		"":                                   "",
		"not a url":                          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, appOrigin(in), in)
	}
}

func TestRateLimit_Exceeded(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	limiter := ratelimit.New(cache.NewMemoryStore(cache.WithClock(func() time.Time { return now })),
		ratelimit.WithMax(2), ratelimit.WithClock(func() time.Time { return now }))
	srv := newTestServer(t, func(d *ServerDeps) { d.Limiter = limiter })

	w := get(srv, "/api/movies")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1700000060", w.Header().Get("X-RateLimit-Reset"))

	w = get(srv, "/api/movies")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	now = now.Add(15 * time.Second)
	w = get(srv, "/api/movies")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "45", w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "1700000060", w.Header().Get("X-RateLimit-Reset"))
	resp := decode[errorResponse](t, w)
	assert.Equal(t, "rate_limit_exceeded", resp.Error)
	assert.Equal(t, "API rate limit exceeded. Please retry later.", resp.Message)

	// The detail endpoint is not limited.
	assert.Equal(t, http.StatusOK, get(srv, "/api/movie?id=1").Code)

	now = now.Add(45 * time.Second)
	assert.Equal(t, http.StatusOK, get(srv, "/api/movies").Code)
}

func TestRateLimit_ClientID(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := mocks.NewMockLimiter(ctrl)
	limiter.EXPECT().
		Allow(gomock.Any(), "192.0.2.1").
		Return(ratelimit.Decision{Allowed: true, Limit: 120, Remaining: 119, Reset: 1_700_000_060}, errors.New("bucket not stored"))

	srv := newTestServer(t, func(d *ServerDeps) { d.Limiter = limiter })

	w := get(srv, "/api/movies", "X-Real-IP", "203.0.113.9")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "119", w.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_TrustProxy(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := mocks.NewMockLimiter(ctrl)
	limiter.EXPECT().
		Allow(gomock.Any(), "203.0.113.9").
		Return(ratelimit.Decision{Allowed: true, Limit: 120, Remaining: 119}, nil)

	srv := newTestServer(t, func(d *ServerDeps) {
		d.Limiter = limiter
		d.Config.RateLimit.TrustProxy = true
	})

	assert.Equal(t, http.StatusOK, get(srv, "/api/movies", "X-Real-IP", "203.0.113.9").Code)
}

func TestClientID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "[2001:db8::1]:5555"
	assert.Equal(t, "2001:db8::1", clientID(r))

	r.RemoteAddr = "198.51.100.7"
	assert.Equal(t, "198.51.100.7", clientID(r))

	r.RemoteAddr = ""
	assert.Equal(t, ratelimit.Anonymous, clientID(r))
}

func TestListMovies_WithTMDB(t *testing.T) {
	ctrl := gomock.NewController(t)
	meta := mocks.NewMockMetadata(ctrl)
	meta.EXPECT().
		PosterURL(gomock.Any(), gomock.Any(), "w500").
		DoAndReturn(func(_ context.Context, path, size string) (string, error) {
			return "https://image.tmdb.org/t/p/" + size + path, nil
		}).
		Times(2)

	srv := newTestServer(t, func(d *ServerDeps) { d.Metadata = meta })

	resp := decode[listResponse](t, get(srv, "/api/movies?genre=science+fiction&tmdb=1"))
	require.Len(t, resp.Data, 2)
	ref := resp.Data[1].TMDB
	require.NotNil(t, ref)
	assert.Equal(t, int64(603), ref.ID)
	assert.Equal(t, "https://www.themoviedb.org/movie/603", ref.URL)
	require.NotNil(t, ref.Poster)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg", *ref.Poster)
}

func TestListMovies_TMDBPosterUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	meta := mocks.NewMockMetadata(ctrl)
	meta.EXPECT().PosterURL(gomock.Any(), gomock.Any(), gomock.Any()).Return("", tmdb.ErrUnavailable)

	srv := newTestServer(t, func(d *ServerDeps) { d.Metadata = meta })

	w := get(srv, "/api/movies?year=1999&tmdb=true")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listResponse](t, w)
	require.NotNil(t, resp.Data[0].TMDB)
	assert.Nil(t, resp.Data[0].TMDB.Poster)
}

func TestGetMovie_InvalidRequest(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, target := range []string{"/api/movie", "/api/movie?id=0", "/api/movie?id=abc"} {
		w := get(srv, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		resp := decode[errorResponse](t, w)
		assert.Equal(t, "invalid_request", resp.Error)
		assert.Equal(t, "Specify id or slug", resp.Message)
	}
}

func TestGetMovie_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, target := range []string{"/api/movie?id=99", "/api/movie?slug=missing", "/api/movie?slug="} {
		w := get(srv, target)
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.JSONEq(t, `{"error":"not_found"}`, w.Body.String())
	}
}

func TestGetMovie_BySlug(t *testing.T) {
	srv := newTestServer(t, nil)

	w := get(srv, "/api/movie?slug=matrix-1999")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=300, stale-while-revalidate=120", w.Header().Get("Cache-Control"))

	resp := decode[detailResponse](t, w)
	d := resp.Data
	assert.Equal(t, int64(3), d.ID)
	assert.Equal(t, []string{"Action", "Science Fiction"}, d.Genres)
	assert.Equal(t, []string{"Keanu Reeves", "Carrie-Anne Moss", "Laurence Fishburne"}, d.Cast)
	assert.Equal(t, testAppURL+"/film/3/matrix-1999", d.Links.HTML)
	assert.Nil(t, d.TMDB)
	assert.Empty(t, d.Videos)
	assert.Nil(t, d.PosterCachedAt)

	raw := decode[map[string]map[string]any](t, w)
	assert.Contains(t, raw["data"], "tmdb")
	assert.Nil(t, raw["data"]["tmdb"])
	assert.Equal(t, []any{}, raw["data"]["videos"])
}

func TestGetMovie_IDWinsOverSlug(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := decode[detailResponse](t, get(srv, "/api/movie?id=2&slug=matrix-1999"))
	assert.Equal(t, "Il padrino", resp.Data.Title)
}

func TestGetMovie_WithTMDB(t *testing.T) {
	ctrl := gomock.NewController(t)
	meta := mocks.NewMockMetadata(ctrl)
	overview := "A hacker learns the truth."
	meta.EXPECT().
		GetMovie(gomock.Any(), int64(603), "credits", "videos", "images").
		Return(&tmdb.Movie{
			ID:       603,
			Title:    "The Matrix",
			Overview: &overview,
			Videos: &tmdb.Videos{Results: []tmdb.Video{
				{Key: "vKQi3bBA1y8", Name: "Trailer", Site: "YouTube", PublishedAt: "2021-01-01T00:00:00.000Z"},
				{Key: "123", Name: "Clip", Site: "Vimeo"},
				{Key: "m8e-FF8MsqU", Name: "Teaser", Site: "YouTube"},
			}},
		}, nil)

	srv := newTestServer(t, func(d *ServerDeps) { d.Metadata = meta })

	w := get(srv, "/api/movie?id=3&tmdb=true")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[detailResponse](t, w)

	require.NotNil(t, resp.Data.TMDB)
	assert.Equal(t, int64(603), resp.Data.TMDB.ID)
	require.Len(t, resp.Data.Videos, 2)
	v := resp.Data.Videos[0]
	assert.Equal(t, "Trailer", v.Name)
	assert.Equal(t, "https://www.youtube.com/embed/vKQi3bBA1y8", v.EmbedURL)
	assert.Equal(t, "https://i.ytimg.com/vi/vKQi3bBA1y8/hqdefault.jpg", v.ThumbnailURL)
	require.NotNil(t, v.PublishedAt)
	assert.Nil(t, resp.Data.Videos[1].PublishedAt)
}

func TestGetMovie_TMDBFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	meta := mocks.NewMockMetadata(ctrl)
	meta.EXPECT().GetMovie(gomock.Any(), int64(27205), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, tmdb.ErrUnavailable)

	srv := newTestServer(t, func(d *ServerDeps) { d.Metadata = meta })

	w := get(srv, "/api/movie?id=1&tmdb=yes")
	// "yes" is not a strconv bool, so TMDb is not asked at all.
	require.Equal(t, http.StatusOK, w.Code)

	w = get(srv, "/api/movie?id=1&tmdb=1")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[detailResponse](t, w)
	assert.Nil(t, resp.Data.TMDB)
	assert.Empty(t, resp.Data.Videos)
}

func TestStorageUnavailable(t *testing.T) {
	srv := newTestServer(t, func(d *ServerDeps) {
		d.Catalog = catalog.NewService(failingRepo{}, nil)
	})

	for _, target := range []string{"/api/movies", "/api/movie?id=1", "/api/movie?slug=x"} {
		w := get(srv, target)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, target)
		assert.Equal(t, "storage_unavailable", decode[errorResponse](t, w).Error)
	}
	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/sitemap.xml").Code)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	assert.JSONEq(t, `{"status":"ok","storage":"memory","tmdb":false}`, get(srv, "/healthz").Body.String())

	ctrl := gomock.NewController(t)
	meta := mocks.NewMockMetadata(ctrl)
	meta.EXPECT().Configured().Return(true)
	srv = newTestServer(t, func(d *ServerDeps) { d.Metadata = meta })
	assert.JSONEq(t, `{"status":"ok","storage":"memory","tmdb":true}`, get(srv, "/healthz").Body.String())
}

func TestSitemap(t *testing.T) {
	local := "posters/cache/matrix-1999.jpg"
	movies := catalog.SeedMovies()
	movies[2].PosterPathLocal = &local

	srv := newTestServer(t, func(d *ServerDeps) {
		d.Catalog = catalog.NewService(catalog.NewMemoryRepository(movies),
			catalog.NewPosterBuilder(testAppURL, t.TempDir(), false, nil))
	})
	srv.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	w := get(srv, "/sitemap.xml")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/xml; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, body, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">`)
	assert.Equal(t, 6, strings.Count(body, "<url>"))
	assert.Contains(t, body, "<loc>https://filmoteca.example/</loc>")
	assert.Contains(t, body, "<lastmod>2025-03-01T12:00:00Z</lastmod>")
	assert.Contains(t, body, "<loc>https://filmoteca.example/film/3/matrix-1999</loc>")
	assert.Contains(t, body, "<lastmod>2024-01-01T10:00:00Z</lastmod>")
	assert.Equal(t, 5, strings.Count(body, "<changefreq>weekly</changefreq>"))
	assert.Equal(t, 5, strings.Count(body, "<priority>0.8</priority>"))
	assert.Equal(t, 1, strings.Count(body, "<image:image>"))
	assert.Contains(t, body, "<image:loc>https://filmoteca.example/posters/cache/matrix-1999.jpg</image:loc>")
	assert.Contains(t, body, "<image:caption>Matrix poster</image:caption>")
	assert.Contains(t, body, "<loc>https://filmoteca.example/film/5/schindlers-list-1993</loc>")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, func(d *ServerDeps) { d.Config.Metrics.Enabled = true })

	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/healthz", "200"))
	get(srv, "/healthz")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/healthz", "200")))

	w := get(srv, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "filmoteca_http_requests_total")

	srv = newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, get(srv, "/metrics").Code)
}
