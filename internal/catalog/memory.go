package catalog

import (
	"context"
	"slices"
)

// MemoryRepository serves a fixed movie list from memory. It is the
// fallback used when no database is configured.
type MemoryRepository struct {
	movies []*Movie // sorted for listing
}

// NewMemoryRepository copies movies; later changes to the argument are not seen.
func NewMemoryRepository(movies []*Movie) *MemoryRepository {
	own := make([]*Movie, len(movies))
	for i, m := range movies {
		c := m.Clone()
		c.hydrate()
		own[i] = c
	}
	slices.SortFunc(own, compareListing)
	return &MemoryRepository{movies: own}
}

func (r *MemoryRepository) Find(_ context.Context, id int64) (*Movie, error) {
	for _, m := range r.movies {
		if m.ID == id {
			return m.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) FindBySlug(_ context.Context, slug string) (*Movie, error) {
	for _, m := range r.movies {
		if m.Slug == slug {
			return m.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) filtered(f Filter) []*Movie {
	f = f.Normalize()
	var out []*Movie
	for _, m := range r.movies {
		if matches(m, f) {
			out = append(out, m)
		}
	}
	return out
}

func (r *MemoryRepository) Paginated(_ context.Context, f Filter, page, perPage int) (*Page, error) {
	page, perPage = ClampPage(page, perPage)
	all := r.filtered(f)
	window := paginate(all, page, perPage)

	data := make([]*Movie, len(window))
	for i, m := range window {
		data[i] = m.Clone()
	}
	return &Page{Data: data, Meta: newMeta(page, perPage, len(all))}, nil
}

func (r *MemoryRepository) Count(_ context.Context, f Filter) (int, error) {
	return len(r.filtered(f)), nil
}

func (r *MemoryRepository) DistinctGenres(_ context.Context) ([]string, error) {
	var names []string
	for _, m := range r.movies {
		names = append(names, m.Genre)
		names = append(names, m.Genres...)
	}
	return collectGenres(names), nil
}

func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]*Movie, error) {
	limit = max(1, limit)
	sorted := slices.Clone(r.movies)
	slices.SortFunc(sorted, compareRecent)

	out := make([]*Movie, 0, min(limit, len(sorted)))
	for _, m := range sorted[:min(limit, len(sorted))] {
		out = append(out, m.Clone())
	}
	return out, nil
}
