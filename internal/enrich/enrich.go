// Package enrich refreshes catalog metadata from TMDb and links movies
// that have no TMDb id yet.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vmunix/filmoteca/internal/catalog"
	"github.com/vmunix/filmoteca/internal/logging"
	"github.com/vmunix/filmoteca/internal/tmdb"
)

// DefaultLimit is the number of movies a run visits when none is given.
const DefaultLimit = 50

// CastSize is how many billed cast members a sync keeps.
const CastSize = 8

// Mode selects which linked movies a sync visits.
type Mode string

const (
	ModeFull  Mode = "full"
	ModeDelta Mode = "delta"
)

// ParseMode accepts "full" and "delta" in any case; empty means full.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeDelta:
		return ModeDelta, nil
	}
	return "", fmt.Errorf("unknown sync mode %q (want full or delta)", s)
}

// Metadata is the TMDb surface the jobs read from.
type Metadata interface {
	GetMovie(ctx context.Context, tmdbID int64, appendFields ...string) (*tmdb.Movie, error)
	SearchMovie(ctx context.Context, query string, year, page int) (*tmdb.SearchResults, error)
}

// Store is the part of catalog.Store the jobs write through.
type Store interface {
	ListForSync(ctx context.Context, q catalog.SyncQuery) ([]*catalog.Movie, error)
	ListUnlinked(ctx context.Context, limit int) ([]*catalog.Movie, error)
	UpdateMetadata(ctx context.Context, id int64, u catalog.MetadataUpdate) error
	SetTMDBID(ctx context.Context, id, tmdbID int64) error
}

// Options controls a sync run.
type Options struct {
	Mode  Mode
	Limit int        // defaults to DefaultLimit, at least 1
	Since *time.Time // delta mode only
	Link  bool       // resolve unlinked movies first
}

// Report summarises a run.
type Report struct {
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
	Linked    int `json:"linked"`
	Unmatched int `json:"unmatched"`
}

// Syncer runs TMDb sync and link passes.
type Syncer struct {
	store Store
	meta  Metadata
	log   *slog.Logger
}

// NewSyncer creates a Syncer. logger may be nil.
func NewSyncer(store Store, meta Metadata, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Syncer{store: store, meta: meta, log: logger.With("component", "enrich")}
}

// Run links (when asked) and then syncs up to opts.Limit linked movies,
// most recently updated first. Per-movie failures are counted in the
// report; only storage failures while listing abort the run.
func (s *Syncer) Run(ctx context.Context, opts Options) (Report, error) {
	var report Report
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	limit = max(1, limit)

	if opts.Link {
		if err := s.link(ctx, limit, &report); err != nil {
			return report, err
		}
	}

	q := catalog.SyncQuery{Limit: limit}
	if opts.Mode == ModeDelta {
		q.Since = opts.Since
	}
	movies, err := s.store.ListForSync(ctx, q)
	if err != nil {
		return report, fmt.Errorf("list movies to sync: %w", err)
	}
	if len(movies) == 0 {
		s.log.Info("no movies to sync")
		return report, nil
	}

	for _, m := range movies {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.syncOne(ctx, m); err != nil {
			report.Failed++
			s.log.Warn("sync failed", "movie_id", m.ID, "title", m.Title, "error", err)
			continue
		}
		report.Synced++
		s.log.Info("synced", "movie_id", m.ID, "title", m.Title)
	}
	return report, nil
}

func (s *Syncer) syncOne(ctx context.Context, m *catalog.Movie) error {
	if m.TMDBID == nil {
		return errors.New("movie has no tmdb id")
	}
	tm, err := s.meta.GetMovie(ctx, *m.TMDBID, tmdb.DefaultAppend...)
	if err != nil {
		return fmt.Errorf("fetch tmdb %d: %w", *m.TMDBID, err)
	}
	return s.store.UpdateMetadata(ctx, m.ID, UpdateFromTMDB(tm))
}

// UpdateFromTMDB maps a TMDb payload onto a metadata update. Fields the
// payload lacks stay nil so the stored values are kept.
func UpdateFromTMDB(tm *tmdb.Movie) catalog.MetadataUpdate {
	u := catalog.MetadataUpdate{
		Summary:          tm.Overview,
		Duration:         tm.Runtime,
		Rating:           tm.VoteAverage,
		RatingCount:      tm.VoteCount,
		PosterPathRemote: tm.PosterPath,
	}
	if d, ok := tm.Director(); ok {
		u.Director = &d
	}
	if cast, ok := tm.TopCast(CastSize); ok {
		u.Cast = cast
	}
	return u
}

// link searches TMDb for movies without an id and records the best
// candidate when it is confident enough.
func (s *Syncer) link(ctx context.Context, limit int, report *Report) error {
	movies, err := s.store.ListUnlinked(ctx, limit)
	if err != nil {
		return fmt.Errorf("list unlinked movies: %w", err)
	}
	for _, m := range movies {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := s.meta.SearchMovie(ctx, m.Title, m.Year, 1)
		if err != nil {
			report.Failed++
			s.log.Warn("tmdb search failed", "movie_id", m.ID, "title", m.Title, "error", err)
			continue
		}
		best, ok := BestMatch(m.Title, m.Year, res.Results)
		if !ok {
			report.Unmatched++
			s.log.Info("no confident tmdb match", "movie_id", m.ID, "title", m.Title)
			continue
		}
		if err := s.store.SetTMDBID(ctx, m.ID, best.ID); err != nil {
			report.Failed++
			s.log.Warn("link failed", "movie_id", m.ID, "tmdb_id", best.ID, "error", err)
			continue
		}
		report.Linked++
		s.log.Info("linked", "movie_id", m.ID, "title", m.Title, "tmdb_id", best.ID,
			"score", best.Score, "confidence", best.Confidence.String())
	}
	return nil
}

// Match is a scored search candidate.
type Match struct {
	ID         int64
	Title      string
	Score      float64
	Confidence Confidence
}

// BestMatch picks the search result whose title (or original title) is
// most similar to title. Candidates from another year are ignored when
// year is known. ok is false unless the best score reaches ConfidenceMedium.
func BestMatch(title string, year int, results []tmdb.SearchResult) (Match, bool) {
	var best Match
	for _, r := range results {
		if year > 0 && r.Year() != year {
			continue
		}
		for _, candidate := range []string{r.Title, r.OriginalTitle} {
			if candidate == "" {
				continue
			}
			if score := Similarity(title, candidate); score > best.Score {
				best = Match{ID: r.ID, Title: r.Title, Score: score}
			}
		}
	}
	best.Confidence = confidenceOf(best.Score)
	return best, best.ID != 0 && best.Confidence >= ConfidenceMedium
}
