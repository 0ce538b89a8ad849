package catalog

import (
	"cmp"
	"strings"

	"github.com/vmunix/filmoteca/internal/database"
)

// matches is the in-memory twin of the SQL WHERE clause built in sql.go.
// Both sides fold with database.Fold so their results agree.
func matches(m *Movie, f Filter) bool {
	if f.Search != "" {
		needle := database.Fold(f.Search)
		if !strings.Contains(database.Fold(m.Title), needle) &&
			!strings.Contains(database.Fold(m.Summary), needle) {
			return false
		}
	}
	if f.Genre != "" && !hasGenre(m, database.Fold(f.Genre)) {
		return false
	}
	if f.Year != 0 && m.Year != f.Year {
		return false
	}
	return true
}

func hasGenre(m *Movie, folded string) bool {
	if database.Fold(m.Genre) == folded {
		return true
	}
	for _, g := range m.Genres {
		if database.Fold(g) == folded {
			return true
		}
	}
	return false
}

// compareListing orders by year descending, then title in byte order,
// then id so equal (year, title) pairs page deterministically.
func compareListing(a, b *Movie) int {
	if c := cmp.Compare(b.Year, a.Year); c != 0 {
		return c
	}
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// compareRecent orders by last update, newest first, then id.
func compareRecent(a, b *Movie) int {
	if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// paginate returns the page'th window of perPage items from sorted.
// page and perPage must already be clamped.
func paginate(sorted []*Movie, page, perPage int) []*Movie {
	if pastEnd(page, perPage, len(sorted)) {
		return []*Movie{}
	}
	start := (page - 1) * perPage
	end := min(start+perPage, len(sorted))
	return sorted[start:end]
}
