// Package tmdb provides a client for The Movie Database API.
package tmdb

import (
	"strconv"
	"strings"
)

// Movie represents TMDB movie metadata, including the credits, videos and
// images sections when they were requested with append_to_response.
type Movie struct {
	ID            int64    `json:"id"`
	IMDBID        string   `json:"imdb_id,omitempty"` // e.g., "tt0133093"
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title,omitempty"`
	Overview      *string  `json:"overview,omitempty"`
	ReleaseDate   string   `json:"release_date,omitempty"` // "2024-03-01"
	PosterPath    *string  `json:"poster_path,omitempty"`  // "/abc123.jpg"
	BackdropPath  *string  `json:"backdrop_path,omitempty"`
	VoteAverage   *float64 `json:"vote_average,omitempty"`
	VoteCount     *int     `json:"vote_count,omitempty"`
	Runtime       *int     `json:"runtime,omitempty"` // minutes
	Genres        []Genre  `json:"genres,omitempty"`
	Credits       *Credits `json:"credits,omitempty"`
	Videos        *Videos  `json:"videos,omitempty"`
	Images        *Images  `json:"images,omitempty"`
}

// Genre represents a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

type CastMember struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character,omitempty"`
	Order     int    `json:"order"`
}

type CrewMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department,omitempty"`
}

type Videos struct {
	ID      int64   `json:"id,omitempty"`
	Results []Video `json:"results"`
}

type Video struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Site        string `json:"site"`
	Type        string `json:"type,omitempty"`
	Official    bool   `json:"official,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

type Images struct {
	Posters   []Image `json:"posters"`
	Backdrops []Image `json:"backdrops"`
}

type Image struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio,omitempty"`
	Language    *string `json:"iso_639_1,omitempty"`
}

// SearchResults is a page of /search/movie.
type SearchResults struct {
	Page         int            `json:"page"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
	Results      []SearchResult `json:"results"`
}

type SearchResult struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	Popularity    float64 `json:"popularity"`
}

// Year extracts the year from ReleaseDate.
func (r SearchResult) Year() int {
	return yearOf(r.ReleaseDate)
}

// Configuration holds the parts of /configuration the application uses.
type Configuration struct {
	SecureBaseURL string
	PosterSizes   []string
}

// Year extracts the year from ReleaseDate.
func (m *Movie) Year() int {
	return yearOf(m.ReleaseDate)
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// Director returns the first crew member credited as Director.
func (m *Movie) Director() (string, bool) {
	if m.Credits == nil {
		return "", false
	}
	for _, c := range m.Credits.Crew {
		if c.Job == "Director" && c.Name != "" {
			return c.Name, true
		}
	}
	return "", false
}

// TopCast returns up to n cast names in billing order. The second return
// is false when the payload has no credits section.
func (m *Movie) TopCast(n int) ([]string, bool) {
	if m.Credits == nil || m.Credits.Cast == nil {
		return nil, false
	}
	names := make([]string, 0, n)
	for _, c := range m.Credits.Cast {
		if len(names) == n {
			break
		}
		if name := strings.TrimSpace(c.Name); name != "" {
			names = append(names, name)
		}
	}
	return names, true
}

// YouTubeVideos returns the videos hosted on YouTube, in payload order.
func (m *Movie) YouTubeVideos() []Video {
	if m.Videos == nil {
		return nil
	}
	var out []Video
	for _, v := range m.Videos.Results {
		if v.Site == "YouTube" && v.Key != "" {
			out = append(out, v)
		}
	}
	return out
}

// EmbedURL is the iframe URL of a YouTube video.
func (v Video) EmbedURL() string {
	return "https://www.youtube.com/embed/" + v.Key
}

// ThumbnailURL is the high quality still of a YouTube video.
func (v Video) ThumbnailURL() string {
	return "https://i.ytimg.com/vi/" + v.Key + "/hqdefault.jpg"
}
