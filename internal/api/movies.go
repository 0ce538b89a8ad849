package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vmunix/filmoteca/internal/catalog"
	"github.com/vmunix/filmoteca/internal/tmdb"
)

const (
	listPerPageMax = 30

	listCacheControl   = "public, max-age=120, stale-while-revalidate=60"
	detailCacheControl = "public, max-age=300, stale-while-revalidate=120"

	applicationName = "Filmoteca"
	tmdbMovieURL    = "https://www.themoviedb.org/movie/"
)

type aggregateRating struct {
	RatingValue float64 `json:"ratingValue"`
	RatingCount int     `json:"ratingCount"`
}

type tmdbRef struct {
	ID     int64   `json:"id"`
	URL    string  `json:"url"`
	Poster *string `json:"poster"`
}

type itemLinks struct {
	Self string `json:"self"`
}

// movieItem is one entry of the /api/movies listing.
type movieItem struct {
	ID               int64                 `json:"id"`
	TMDBID           *int64                `json:"tmdb_id"`
	Title            string                `json:"title"`
	Slug             string                `json:"slug"`
	Year             int                   `json:"year"`
	Genre            string                `json:"genre"`
	Summary          string                `json:"summary"`
	Director         string                `json:"director"`
	Duration         *int                  `json:"duration"`
	Rating           *float64              `json:"rating"`
	RatingCount      *int                  `json:"rating_count"`
	Poster           catalog.Poster        `json:"poster"`
	PosterSrcset     []catalog.SrcsetEntry `json:"poster_srcset"`
	PosterPathRemote *string               `json:"poster_path_remote"`
	AggregateRating  *aggregateRating      `json:"aggregateRating"`
	Links            itemLinks             `json:"links"`
	TMDB             *tmdbRef              `json:"tmdb"`
}

type listLinks struct {
	Self string  `json:"self"`
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

type listResponse struct {
	Data  []movieItem  `json:"data"`
	Meta  catalog.Meta `json:"meta"`
	Links listLinks    `json:"links"`
}

type detailLinks struct {
	HTML string `json:"html"`
}

type videoEmbed struct {
	Name         string  `json:"name"`
	EmbedURL     string  `json:"embed_url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	PublishedAt  *string `json:"published_at"`
}

// movieDetail is the /api/movie payload.
type movieDetail struct {
	ID               int64            `json:"id"`
	TMDBID           *int64           `json:"tmdb_id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Year             int              `json:"year"`
	Genre            string           `json:"genre"`
	Genres           []string         `json:"genres"`
	Summary          string           `json:"summary"`
	Director         string           `json:"director"`
	Cast             []string         `json:"cast"`
	Duration         *int             `json:"duration"`
	Rating           *float64         `json:"rating"`
	RatingCount      *int             `json:"rating_count"`
	Poster           catalog.Poster   `json:"poster"`
	PosterPathRemote *string          `json:"poster_path_remote"`
	PosterCachedAt   *time.Time       `json:"poster_cached_at"`
	AggregateRating  *aggregateRating `json:"aggregateRating"`
	Links            detailLinks      `json:"links"`
	TMDB             *tmdb.Movie      `json:"tmdb"`
	Videos           []videoEmbed     `json:"videos"`
}

type detailResponse struct {
	Data movieDetail `json:"data"`
}

func ratingOf(m *catalog.Movie) *aggregateRating {
	if !m.HasAggregateRating() {
		return nil
	}
	return &aggregateRating{RatingValue: *m.Rating, RatingCount: *m.RatingCount}
}

func (s *Server) filmURL(m *catalog.Movie) string {
	return s.appURL + "/film/" + strconv.FormatInt(m.ID, 10) + "/" + m.Slug
}

// storageError maps repository failures onto HTTP responses.
func (s *Server) storageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "not_found", "")
		return
	}
	s.log.Error("catalog query failed", "path", r.URL.Path, "error", err)
	writeError(w, r, http.StatusServiceUnavailable, "storage_unavailable", "Movie storage is unavailable.")
}

func (s *Server) tmdbRef(ctx context.Context, m *catalog.Movie) *tmdbRef {
	if m.TMDBID == nil || *m.TMDBID <= 0 {
		return nil
	}
	ref := &tmdbRef{ID: *m.TMDBID, URL: tmdbMovieURL + strconv.FormatInt(*m.TMDBID, 10)}
	if s.deps.Metadata != nil && m.PosterPathRemote != nil && *m.PosterPathRemote != "" {
		if u, err := s.deps.Metadata.PosterURL(ctx, *m.PosterPathRemote, catalog.DefaultPosterSize); err == nil {
			ref.Poster = &u
		}
	}
	return ref
}

// pageURL renders the listing URL for page with every other query
// parameter carried over.
func (s *Server) pageURL(query url.Values, page int) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	return s.appURL + "/api/movies?" + q.Encode()
}

func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := max(1, queryInt(r, "page", 1))
	perPage := min(listPerPageMax, max(1, queryInt(r, "per_page", catalog.DefaultPerPage)))
	filter := catalog.Filter{
		Search: query.Get("search"),
		Genre:  query.Get("genre"),
		Year:   queryInt(r, "year", 0),
	}
	withTMDB := queryBool(r, "tmdb")

	listing, err := s.deps.Catalog.List(r.Context(), filter, page, perPage)
	if err != nil {
		s.storageError(w, r, err)
		return
	}

	items := make([]movieItem, len(listing.Data))
	for i, e := range listing.Data {
		items[i] = movieItem{
			ID:               e.ID,
			TMDBID:           e.TMDBID,
			Title:            e.Title,
			Slug:             e.Slug,
			Year:             e.Year,
			Genre:            e.Genre,
			Summary:          e.Summary,
			Director:         e.Director,
			Duration:         e.Duration,
			Rating:           e.Rating,
			RatingCount:      e.RatingCount,
			Poster:           e.Poster,
			PosterSrcset:     e.Poster.Srcset,
			PosterPathRemote: e.PosterPathRemote,
			AggregateRating:  ratingOf(e.Movie),
			Links:            itemLinks{Self: s.filmURL(e.Movie)},
		}
		if withTMDB {
			items[i].TMDB = s.tmdbRef(r.Context(), e.Movie)
		}
	}

	meta := listing.Meta
	links := listLinks{Self: s.pageURL(query, meta.Page)}
	var rels []string
	if meta.HasPrev() {
		prev := s.pageURL(query, meta.Page-1)
		links.Prev = &prev
		rels = append(rels, "<"+prev+`>; rel="prev"`)
	}
	if meta.HasNext() {
		next := s.pageURL(query, meta.Page+1)
		links.Next = &next
		rels = append(rels, "<"+next+`>; rel="next"`)
	}

	h := w.Header()
	if len(rels) > 0 {
		h.Add("Link", strings.Join(rels, ", "))
	}
	h.Set("Cache-Control", listCacheControl)
	h.Set("X-Application-Name", applicationName)
	writeJSON(w, r, http.StatusOK, listResponse{Data: items, Meta: meta, Links: links})
}

func (s *Server) getMovie(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	id := int64(queryInt(r, "id", 0))
	if id <= 0 && !query.Has("slug") {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "Specify id or slug")
		return
	}

	var (
		e   *catalog.Entry
		err error
	)
	if id > 0 {
		e, err = s.deps.Catalog.Get(r.Context(), id)
	} else {
		e, err = s.deps.Catalog.GetBySlug(r.Context(), query.Get("slug"))
	}
	if err != nil {
		s.storageError(w, r, err)
		return
	}

	d := movieDetail{
		ID:               e.ID,
		TMDBID:           e.TMDBID,
		Title:            e.Title,
		Slug:             e.Slug,
		Year:             e.Year,
		Genre:            e.Genre,
		Genres:           e.Genres,
		Summary:          e.Summary,
		Director:         e.Director,
		Cast:             e.Cast,
		Duration:         e.Duration,
		Rating:           e.Rating,
		RatingCount:      e.RatingCount,
		Poster:           e.Poster,
		PosterPathRemote: e.PosterPathRemote,
		PosterCachedAt:   e.PosterCachedAt,
		AggregateRating:  ratingOf(e.Movie),
		Links:            detailLinks{HTML: s.filmURL(e.Movie)},
		Videos:           []videoEmbed{},
	}
	if queryBool(r, "tmdb") {
		d.TMDB = s.fetchTMDB(r.Context(), e.Movie)
	}
	if d.TMDB != nil {
		for _, v := range d.TMDB.YouTubeVideos() {
			embed := videoEmbed{Name: v.Name, EmbedURL: v.EmbedURL(), ThumbnailURL: v.ThumbnailURL()}
			if v.PublishedAt != "" {
				embed.PublishedAt = &v.PublishedAt
			}
			d.Videos = append(d.Videos, embed)
		}
	}

	w.Header().Set("Cache-Control", detailCacheControl)
	writeJSON(w, r, http.StatusOK, detailResponse{Data: d})
}

// fetchTMDB returns the full TMDb payload, or nil when it is unavailable.
// A TMDb failure never fails the request.
func (s *Server) fetchTMDB(ctx context.Context, m *catalog.Movie) *tmdb.Movie {
	if s.deps.Metadata == nil || m.TMDBID == nil || *m.TMDBID <= 0 {
		return nil
	}
	tm, err := s.deps.Metadata.GetMovie(ctx, *m.TMDBID, tmdb.DefaultAppend...)
	if err != nil {
		s.log.Warn("tmdb lookup failed", "movie_id", m.ID, "tmdb_id", *m.TMDBID, "error", err)
		return nil
	}
	return tm
}
