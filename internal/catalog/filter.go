package catalog

import "strings"

const (
	// DefaultPerPage is the page size used when none is requested.
	DefaultPerPage = 12
	// MaxPerPage bounds every page size the repository will serve.
	MaxPerPage = 60
)

// Filter selects movies. Zero values mean "no filter"; supplied
// criteria are ANDed.
type Filter struct {
	Search string // case-insensitive substring of title or summary
	Genre  string // case-insensitive primary genre or genres list member
	Year   int    // exact release year
}

// Normalize trims the text criteria.
func (f Filter) Normalize() Filter {
	f.Search = strings.TrimSpace(f.Search)
	f.Genre = strings.TrimSpace(f.Genre)
	if f.Year < 0 {
		f.Year = 0
	}
	return f
}

// Page is one slice of a filtered, ordered listing.
type Page struct {
	Data []*Movie `json:"data"`
	Meta Meta     `json:"meta"`
}

// Meta describes a Page's position in the full listing.
type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ClampPage applies the repository's bounds: page >= 1, perPage in [1, MaxPerPage].
func ClampPage(page, perPage int) (int, int) {
	return max(1, page), min(MaxPerPage, max(1, perPage))
}

func newMeta(page, perPage, total int) Meta {
	return Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: (total + perPage - 1) / perPage,
	}
}

// pastEnd reports whether page lies beyond the last page of total items.
// It never multiplies page, so any int is safe.
func pastEnd(page, perPage, total int) bool {
	return page-1 >= (total+perPage-1)/perPage
}

// HasPrev reports whether a previous page exists.
func (m Meta) HasPrev() bool {
	return m.Page > 1
}

// HasNext reports whether a following page exists.
func (m Meta) HasNext() bool {
	return m.Page < m.TotalPages
}
