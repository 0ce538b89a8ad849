package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/filmoteca/internal/cache"
	"github.com/vmunix/filmoteca/internal/config"
	"github.com/vmunix/filmoteca/internal/logging"
)

const inceptionJSON = `{
	"id": 27205,
	"title": "Inception",
	"overview": "Cobb, a skilled thief...",
	"release_date": "2010-07-15",
	"poster_path": "/oYuLEt3zVCKq57qu2F8dT7NIa6f.jpg",
	"vote_average": 8.4,
	"vote_count": 35000,
	"runtime": 148,
	"genres": [{"id": 878, "name": "Science Fiction"}],
	"credits": {
		"cast": [
			{"id": 6193, "name": "Leonardo DiCaprio", "order": 0},
			{"id": 24045, "name": "Joseph Gordon-Levitt", "order": 1}
		],
		"crew": [
			{"id": 1, "name": "Emma Thomas", "job": "Producer"},
			{"id": 525, "name": "Christopher Nolan", "job": "Director"}
		]
	},
	"videos": {"results": [
		{"key": "YoHD9XEInc0", "name": "Official Trailer", "site": "YouTube", "published_at": "2010-05-11T00:00:00.000Z"},
		{"key": "123", "name": "Clip", "site": "Vimeo"}
	]}
}`

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(url), WithLogger(logging.Discard())}, opts...)
	return NewClient("test-key", opts...)
}

func TestClient_GetMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/27205", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "credits,videos,images", r.URL.Query().Get("append_to_response"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Filmoteca/1.0 (+https://filmoteca.example)", r.Header.Get("User-Agent"))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(inceptionJSON))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithUserAgent("https://filmoteca.example"))

	movie, err := client.GetMovie(context.Background(), 27205)
	require.NoError(t, err)
	assert.Equal(t, int64(27205), movie.ID)
	assert.Equal(t, "Inception", movie.Title)
	assert.Equal(t, 2010, movie.Year())
	require.NotNil(t, movie.Runtime)
	assert.Equal(t, 148, *movie.Runtime)

	director, ok := movie.Director()
	assert.True(t, ok)
	assert.Equal(t, "Christopher Nolan", director)

	cast, ok := movie.TopCast(8)
	assert.True(t, ok)
	assert.Equal(t, []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt"}, cast)

	videos := movie.YouTubeVideos()
	require.Len(t, videos, 1)
	assert.Equal(t, "https://www.youtube.com/embed/YoHD9XEInc0", videos[0].EmbedURL())
	assert.Equal(t, "https://i.ytimg.com/vi/YoHD9XEInc0/hqdefault.jpg", videos[0].ThumbnailURL())
}

func TestClient_GetMovie_ExplicitAppend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "credits", r.URL.Query().Get("append_to_response"))
		_, _ = w.Write([]byte(`{"id":1,"title":"x"}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).GetMovie(context.Background(), 1, "credits")
	require.NoError(t, err)
}

func TestClient_GetMovie_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34,"status_message":"The resource you requested could not be found."}`))
	}))
	defer server.Close()

	movie, err := newTestClient(t, server.URL).GetMovie(context.Background(), 99999999)
	assert.Nil(t, movie)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Cached(t *testing.T) {
	var callCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount.Add(1)
		_, _ = w.Write([]byte(`{"id":550,"title":"Fight Club"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithCacheTTL(time.Hour))

	// First call hits API
	_, err := client.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, int32(1), callCount.Load())

	// Second call uses cache
	_, err = client.GetMovie(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, int32(1), callCount.Load(), "should use cache, not call API again")

	// Different parameters are a different cache key.
	_, err = client.GetMovie(context.Background(), 550, "credits")
	require.NoError(t, err)
	assert.Equal(t, int32(2), callCount.Load())
}

func TestClient_CacheKeyExcludesCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	client := newTestClient(t, server.URL, WithCache(store))

	_, err := client.Request(context.Background(), "get", "/configuration", nil, false)
	require.NoError(t, err)

	_, ok := store.Get(context.Background(), cache.NamespaceTMDB, "GET:"+server.URL+"/3/configuration:")
	assert.True(t, ok)
}

func TestClient_FailuresAreNotCached(t *testing.T) {
	var callCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	for range 2 {
		_, err := client.GetMovie(context.Background(), 1)
		assert.ErrorIs(t, err, ErrUnavailable)
		assert.NotErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(2), callCount.Load())
}

func TestClient_NonObjectBody(t *testing.T) {
	for name, body := range map[string]string{
		"array":   `[1,2,3]`,
		"garbage": `<html>oops</html>`,
		"string":  `"hello"`,
	} {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).Request(context.Background(), http.MethodGet, "/configuration", nil, false)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestClient_OversizedBody(t *testing.T) {
	var callCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount.Add(1)
		_, _ = w.Write([]byte(`{"overview":"` + strings.Repeat("a", maxBodyBytes) + `"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Request(context.Background(), http.MethodGet, "/movie/27205", nil, false)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorContains(t, err, "larger than")

	// nothing was cached, so the next call goes out again
	_, err = client.Request(context.Background(), http.MethodGet, "/movie/27205", nil, false)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(2), callCount.Load())
}

func TestClient_NoCredentials(t *testing.T) {
	var callCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount.Add(1)
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL))
	assert.False(t, client.Configured())

	_, err := client.GetMovie(context.Background(), 27205)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(0), callCount.Load(), "no network call without credentials")
}

func TestClient_ReadToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Empty(t, r.URL.Query().Get("api_key"))
		_, _ = w.Write([]byte(`{"path":"` + r.URL.Path + `"}`))
	}))
	defer server.Close()

	client := NewClient("", WithBaseURL(server.URL), WithReadToken("tok"))
	require.True(t, client.Configured())

	body, err := client.Request(context.Background(), http.MethodGet, "/list/1", nil, true)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/4/list/1"}`, string(body))
}

func TestClient_V4RequiresReadToken(t *testing.T) {
	client := NewClient("key-only", WithBaseURL("http://127.0.0.1:1"))
	_, err := client.Request(context.Background(), http.MethodGet, "/list/1", nil, true)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_BothCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewClient("k", WithBaseURL(server.URL), WithReadToken("tok")).
		Request(context.Background(), http.MethodGet, "/configuration", nil, false)
	require.NoError(t, err)
}

func TestClient_SearchMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		assert.Equal(t, "Matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "1999", r.URL.Query().Get("year"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"total_results":1,
			"results":[{"id":603,"title":"The Matrix","release_date":"1999-03-30"}]}`))
	}))
	defer server.Close()

	res, err := newTestClient(t, server.URL).SearchMovie(context.Background(), "Matrix", 1999, 0)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, int64(603), res.Results[0].ID)
	assert.Equal(t, 1999, res.Results[0].Year())
}

func TestClient_PosterURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/configuration", r.URL.Path)
		_, _ = w.Write([]byte(`{"images":{"secure_base_url":"https://image.tmdb.org/t/p/","poster_sizes":["w154","w500"]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	cfg, err := client.Configuration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"w154", "w500"}, cfg.PosterSizes)

	u, err := client.PosterURL(context.Background(), "/abc.jpg", "w342")
	require.NoError(t, err)
	assert.Equal(t, "https://image.tmdb.org/t/p/w342/abc.jpg", u)

	_, err = client.PosterURL(context.Background(), "", "w342")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_PosterURL_NoBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"images":{}}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).PosterURL(context.Background(), "/abc.jpg", "w500")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew_FromConfig(t *testing.T) {
	client := New(config.TMDBConfig{APIKey: "k", CacheTTL: time.Minute, BaseURL: "http://tmdb.test/"},
		"https://app.example", cache.NewMemoryStore(), logging.Discard())

	assert.True(t, client.Configured())
	assert.Equal(t, "http://tmdb.test", client.baseURL)
	assert.Equal(t, time.Minute, client.cacheTTL)
	assert.Equal(t, "Filmoteca/1.0 (+https://app.example)", client.userAgent)
}
