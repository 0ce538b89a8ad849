package catalog

import "context"

// Entry is a movie decorated with its poster payload.
type Entry struct {
	*Movie
	Poster Poster `json:"poster"`
}

// Listing is a Page of decorated movies.
type Listing struct {
	Data []*Entry `json:"data"`
	Meta Meta     `json:"meta"`
}

// Service is the read path shared by the API, the sitemap and the CLI.
type Service struct {
	repo    Repository
	posters *PosterBuilder
}

// NewService combines a repository with a poster builder. posters may be
// nil, in which case entries carry an empty poster payload.
func NewService(repo Repository, posters *PosterBuilder) *Service {
	return &Service{repo: repo, posters: posters}
}

// Repository returns the underlying repository.
func (s *Service) Repository() Repository {
	return s.repo
}

func (s *Service) decorate(ctx context.Context, m *Movie) *Entry {
	e := &Entry{Movie: m, Poster: Poster{Srcset: []SrcsetEntry{}, Alt: m.Title + " poster"}}
	if s.posters != nil {
		e.Poster = s.posters.Build(ctx, m)
	}
	return e
}

// List returns one page of the filtered catalog.
func (s *Service) List(ctx context.Context, f Filter, page, perPage int) (*Listing, error) {
	p, err := s.repo.Paginated(ctx, f, page, perPage)
	if err != nil {
		return nil, err
	}
	l := &Listing{Data: make([]*Entry, len(p.Data)), Meta: p.Meta}
	for i, m := range p.Data {
		l.Data[i] = s.decorate(ctx, m)
	}
	return l, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	m, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, m), nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Entry, error) {
	m, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, m), nil
}

func (s *Service) Genres(ctx context.Context) ([]string, error) {
	return s.repo.DistinctGenres(ctx)
}

func (s *Service) Recent(ctx context.Context, n int) ([]*Entry, error) {
	movies, err := s.repo.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, len(movies))
	for i, m := range movies {
		out[i] = s.decorate(ctx, m)
	}
	return out, nil
}

// All walks the whole catalog MaxPerPage movies at a time.
func (s *Service) All(ctx context.Context) ([]*Entry, error) {
	var out []*Entry
	for page := 1; ; page++ {
		l, err := s.List(ctx, Filter{}, page, MaxPerPage)
		if err != nil {
			return nil, err
		}
		out = append(out, l.Data...)
		if page >= l.Meta.TotalPages {
			return out, nil
		}
	}
}
