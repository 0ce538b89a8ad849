// Package api serves the public JSON API, the sitemap and the health and
// metrics endpoints.
package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vmunix/filmoteca/internal/logging"
	"github.com/vmunix/filmoteca/internal/metrics"
)

// Server is the HTTP API server.
type Server struct {
	deps   ServerDeps
	log    *slog.Logger
	appURL string
	origin string
	now    func() time.Time
	router chi.Router
}

// New validates deps and builds the router.
func New(deps ServerDeps) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	s := &Server{
		deps:   deps,
		log:    log.With("component", "api"),
		appURL: deps.Config.Server.AppURL,
		origin: appOrigin(deps.Config.Server.AppURL),
		now:    time.Now,
	}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	if s.deps.Config.RateLimit.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logRequests(s.log))
	r.Use(middleware.Recoverer)
	r.Use(instrument)

	r.Get("/healthz", s.health)
	r.Get("/sitemap.xml", s.sitemap)

	r.Group(func(r chi.Router) {
		r.Use(s.cors)
		r.With(s.rateLimit).Get("/api/movies", s.listMovies)
		r.Get("/api/movie", s.getMovie)
	})

	if s.deps.Config.Metrics.Enabled {
		path := s.deps.Config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.Handler())
	}
	return r
}

// appOrigin reduces the application URL to scheme://host[:port].
func appOrigin(appURL string) string {
	u, err := url.Parse(appURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
