// Package catalog holds the movie model, the dual-mode Movie Repository
// (SQL or in-memory seed), the administrative write store and the query
// service that decorates movies with poster payloads.
package catalog

import (
	"slices"
	"time"
)

// Movie is a catalog entry. Optional attributes are pointers so that
// "absent" survives a round trip through either backend.
type Movie struct {
	ID               int64      `json:"id"`
	TMDBID           *int64     `json:"tmdb_id"`
	Title            string     `json:"title"`
	Slug             string     `json:"slug"`
	Year             int        `json:"year"`
	Genre            string     `json:"genre"`
	Genres           []string   `json:"genres"`
	Summary          string     `json:"summary"`
	Director         string     `json:"director"`
	Cast             []string   `json:"cast"`
	Duration         *int       `json:"duration"`
	Rating           *float64   `json:"rating"`
	RatingCount      *int       `json:"rating_count"`
	PosterPathLocal  *string    `json:"poster_path_local"`
	PosterPathRemote *string    `json:"poster_path_remote"`
	PosterCachedAt   *time.Time `json:"poster_cached_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of m.
func (m *Movie) Clone() *Movie {
	c := *m
	c.TMDBID = clonePtr(m.TMDBID)
	c.Genres = slices.Clone(m.Genres)
	c.Cast = slices.Clone(m.Cast)
	c.Duration = clonePtr(m.Duration)
	c.Rating = clonePtr(m.Rating)
	c.RatingCount = clonePtr(m.RatingCount)
	c.PosterPathLocal = clonePtr(m.PosterPathLocal)
	c.PosterPathRemote = clonePtr(m.PosterPathRemote)
	c.PosterCachedAt = clonePtr(m.PosterCachedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// hydrate fills the derived defaults every backend applies on read: a
// missing genres list falls back to the primary genre, nil lists become
// empty ones.
func (m *Movie) hydrate() {
	if len(m.Genres) == 0 && m.Genre != "" {
		m.Genres = []string{m.Genre}
	}
	if m.Genres == nil {
		m.Genres = []string{}
	}
	if m.Cast == nil {
		m.Cast = []string{}
	}
}

// HasAggregateRating reports whether both rating and rating count are set.
func (m *Movie) HasAggregateRating() bool {
	return m.Rating != nil && m.RatingCount != nil
}
