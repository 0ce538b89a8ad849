package tmdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/vmunix/filmoteca/internal/cache"
	"github.com/vmunix/filmoteca/internal/config"
	"github.com/vmunix/filmoteca/internal/metrics"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org"
	defaultCacheTTL = 24 * time.Hour
	defaultAppURL   = "http://localhost"

	// maxBodyBytes caps a single TMDb response.
	maxBodyBytes = 4 << 20
)

// DefaultAppend is the append_to_response used by GetMovie when none is given.
var DefaultAppend = []string{"credits", "videos", "images"}

var (
	// ErrUnavailable means TMDb could not answer: no credentials, a
	// transport failure, an error status or an unusable body.
	ErrUnavailable = errors.New("tmdb unavailable")

	// ErrNotFound is returned when a movie doesn't exist in TMDB.
	// It also matches ErrUnavailable.
	ErrNotFound = fmt.Errorf("%w: not found", ErrUnavailable)
)

// Client is a TMDB API client. Successful responses are cached in the
// "tmdb" namespace of the shared cache; failures are never cached.
type Client struct {
	apiKey     string
	readToken  string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      cache.Store
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithCache sets the response cache.
func WithCache(s cache.Store) Option {
	return func(c *Client) {
		c.cache = s
	}
}

// WithCacheTTL sets the cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = ttl
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithReadToken sets the v4 read access token, sent as a bearer token.
func WithReadToken(token string) Option {
	return func(c *Client) {
		c.readToken = token
	}
}

// WithUserAgent derives the User-Agent from the public application URL.
func WithUserAgent(appURL string) Option {
	return func(c *Client) {
		c.userAgent = userAgent(appURL)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func userAgent(appURL string) string {
	if appURL == "" {
		appURL = defaultAppURL
	}
	return "Filmoteca/1.0 (+" + appURL + ")"
}

// NewClient creates a new TMDB client. apiKey may be empty when a read
// token is supplied with WithReadToken.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		userAgent: userAgent(""),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cacheTTL: defaultCacheTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewMemoryStore()
	}
	return c
}

// New builds a client from the [tmdb] configuration section.
func New(cfg config.TMDBConfig, appURL string, store cache.Store, logger *slog.Logger) *Client {
	opts := []Option{
		WithReadToken(cfg.ReadToken),
		WithUserAgent(appURL),
		WithCache(store),
		WithLogger(logger.With("component", "tmdb")),
	}
	if cfg.CacheTTL > 0 {
		opts = append(opts, WithCacheTTL(cfg.CacheTTL))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return NewClient(cfg.APIKey, opts...)
}

// Configured reports whether any credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != "" || c.readToken != ""
}

// Request performs a cached call against the v3 (or v4) API and returns
// the raw JSON object.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values, v4 bool) ([]byte, error) {
	if !c.Configured() {
		metrics.TMDBRequests.WithLabelValues("skipped").Inc()
		return nil, fmt.Errorf("%w: no credentials", ErrUnavailable)
	}
	if v4 && c.readToken == "" {
		metrics.TMDBRequests.WithLabelValues("skipped").Inc()
		return nil, fmt.Errorf("%w: v4 requires a read token", ErrUnavailable)
	}

	method = strings.ToUpper(method)
	endpoint := c.baseURL + "/3" + path
	if v4 {
		endpoint = c.baseURL + "/4" + path
	}

	// Credentials are added after the key is computed so they never reach the cache.
	cacheKey := method + ":" + endpoint + ":" + params.Encode()
	if body, ok := c.cache.Get(ctx, cache.NamespaceTMDB, cacheKey); ok {
		metrics.TMDBRequests.WithLabelValues("cached").Inc()
		return body, nil
	}

	query := url.Values{}
	for k, vs := range params {
		query[k] = append([]string(nil), vs...)
	}
	if !v4 && c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	reqURL := endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.readToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.readToken)
	}

	body, err := c.do(req, path)
	if err != nil {
		metrics.TMDBRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.TMDBRequests.WithLabelValues("ok").Inc()

	if err := c.cache.Set(ctx, cache.NamespaceTMDB, cacheKey, body, c.cacheTTL); err != nil {
		c.logger.Warn("tmdb cache write failed", "path", path, "error", err)
	}
	return body, nil
}

func (c *Client) do(req *http.Request, path string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("tmdb request failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		c.logger.Warn("tmdb read failed", "path", path, "error", err)
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if len(body) > maxBodyBytes {
		c.logger.Warn("tmdb response too large", "path", path, "limit", maxBodyBytes)
		return nil, fmt.Errorf("%w: response larger than %d bytes", ErrUnavailable, maxBodyBytes)
	}

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Warn("tmdb resource not found", "path", path)
		return nil, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		c.logger.Warn("tmdb error status", "path", path, "status", resp.StatusCode, "body", truncate(body, 200))
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}

	trimmed := bytes.TrimSpace(body)
	if !gjson.ValidBytes(trimmed) || !gjson.ParseBytes(trimmed).IsObject() {
		c.logger.Warn("tmdb returned a non-object body", "path", path)
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrUnavailable)
	}
	return trimmed, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.Request(ctx, http.MethodGet, path, params, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

// Configuration fetches /configuration.
func (c *Client) Configuration(ctx context.Context) (*Configuration, error) {
	body, err := c.Request(ctx, http.MethodGet, "/configuration", nil, false)
	if err != nil {
		return nil, err
	}
	images := gjson.GetBytes(body, "images")
	cfg := &Configuration{SecureBaseURL: images.Get("secure_base_url").String()}
	for _, size := range images.Get("poster_sizes").Array() {
		cfg.PosterSizes = append(cfg.PosterSizes, size.String())
	}
	return cfg, nil
}

// SearchMovie queries /search/movie. year and page are omitted when zero.
func (c *Client) SearchMovie(ctx context.Context, query string, year, page int) (*SearchResults, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var res SearchResults
	if err := c.get(ctx, "/search/movie", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetMovie fetches movie metadata by TMDB ID. Without appendFields it
// requests DefaultAppend.
func (c *Client) GetMovie(ctx context.Context, tmdbID int64, appendFields ...string) (*Movie, error) {
	if appendFields == nil {
		appendFields = DefaultAppend
	}
	var params url.Values
	if len(appendFields) > 0 {
		params = url.Values{}
		params.Set("append_to_response", strings.Join(appendFields, ","))
	}
	var movie Movie
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(tmdbID, 10), params, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// GetMovieVideos fetches /movie/{id}/videos.
func (c *Client) GetMovieVideos(ctx context.Context, tmdbID int64) (*Videos, error) {
	var videos Videos
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(tmdbID, 10)+"/videos", nil, &videos); err != nil {
		return nil, err
	}
	return &videos, nil
}

// PosterURL joins the configured image base URL, a size (w154, w342,
// w500, w780, original) and a poster path.
func (c *Client) PosterURL(ctx context.Context, posterPath, size string) (string, error) {
	if posterPath == "" {
		return "", fmt.Errorf("%w: empty poster path", ErrUnavailable)
	}
	cfg, err := c.Configuration(ctx)
	if err != nil {
		return "", err
	}
	if cfg.SecureBaseURL == "" {
		return "", fmt.Errorf("%w: no image base url", ErrUnavailable)
	}
	return strings.TrimRight(cfg.SecureBaseURL, "/") + "/" + size + posterPath, nil
}
