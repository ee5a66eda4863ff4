package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/moviehunt/querycache/cache"
)

// Operation names used as cache key prefixes.
const (
	OpTopRatedFilms      = "getTopRatedFilms"
	OpFilmsByGenre       = "getFilmsByGenre"
	OpFilmsByYear        = "getFilmsByYear"
	OpLatestFilms        = "getLatestFilms"
	OpFilmBySlug         = "getFilmBySlug"
	OpStreamingProviders = "getStreamingProviders"
)

// ListingOperations are the operations whose results depend on the whole catalog.
var ListingOperations = []string{
	OpTopRatedFilms,
	OpFilmsByGenre,
	OpFilmsByYear,
	OpLatestFilms,
}

// Service is the cached read side of the catalog.
type Service struct {
	source Source
	memo   *cache.Memoizer
	logger logrus.FieldLogger
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger for invalidation events. Nil is ignored.
func WithServiceLogger(logger logrus.FieldLogger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNow overrides the clock used to default LatestQuery.Before.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wraps source with memo. The logger defaults to logrus.StandardLogger.
func NewService(source Source, memo *cache.Memoizer, opts ...ServiceOption) *Service {
	s := &Service{
		source: source,
		memo:   memo,
		logger: logrus.StandardLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Memoizer exposes the underlying memoizer for stats and manual invalidation.
func (s *Service) Memoizer() *cache.Memoizer {
	return s.memo
}

// TopRatedFilms returns films at or above q.MinRating, best first.
func (s *Service) TopRatedFilms(ctx context.Context, q TopRatedQuery) ([]Film, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return memoize(ctx, s, OpTopRatedFilms, q, func(ctx context.Context) ([]Film, error) {
		return s.source.TopRatedFilms(ctx, q)
	})
}

// FilmsByGenre returns the most popular films tagged with q.Genre.
func (s *Service) FilmsByGenre(ctx context.Context, q GenreQuery) ([]Film, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return memoize(ctx, s, OpFilmsByGenre, q, func(ctx context.Context) ([]Film, error) {
		return s.source.FilmsByGenre(ctx, q)
	})
}

// FilmsByYear returns films released between q.From and q.To inclusive.
func (s *Service) FilmsByYear(ctx context.Context, q YearRangeQuery) ([]Film, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return memoize(ctx, s, OpFilmsByYear, q, func(ctx context.Context) ([]Film, error) {
		return s.source.FilmsByYearRange(ctx, q)
	})
}

// LatestFilms returns releases on or before q.Before, newest first.
// A zero Before means today.
func (s *Service) LatestFilms(ctx context.Context, q LatestQuery) ([]Film, error) {
	q = q.Normalize(s.now())
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return memoize(ctx, s, OpLatestFilms, q, func(ctx context.Context) ([]Film, error) {
		return s.source.LatestFilms(ctx, q)
	})
}

// FilmBySlug returns ErrFilmNotFound, wrapped, for unknown slugs. Misses are not cached.
func (s *Service) FilmBySlug(ctx context.Context, slug string) (Film, error) {
	params := cache.Params{"slug": normalizeSlug(slug)}
	return cache.WithCache(ctx, s.memo, OpFilmBySlug, params, func(ctx context.Context) (Film, error) {
		return s.source.FilmBySlug(ctx, normalizeSlug(slug))
	})
}

// StreamingProviders lists where the film can be watched in region.
// Results are keyed by slug so InvalidateProviders needs no database lookup.
func (s *Service) StreamingProviders(ctx context.Context, slug, region string) ([]StreamingProvider, error) {
	film, err := s.FilmBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	region = strings.ToUpper(strings.TrimSpace(region))
	params := cache.Params{"film": normalizeSlug(slug), "region": region}
	return cache.WithCache(ctx, s.memo, OpStreamingProviders, params, func(ctx context.Context) ([]StreamingProvider, error) {
		return s.source.StreamingProviders(ctx, film.ID, region)
	})
}

// InvalidateFilm drops the cached detail and providers of one film along with
// every listing, since a changed film can move in or out of any of them.
func (s *Service) InvalidateFilm(slug string) error {
	if err := s.memo.Invalidate(OpFilmBySlug, cache.Params{"slug": normalizeSlug(slug)}); err != nil {
		return err
	}
	providers := s.InvalidateProviders(slug)
	removed := s.InvalidateListings()

	s.logger.WithFields(logrus.Fields{
		"slug":      slug,
		"providers": providers,
		"listings":  removed,
	}).Debug("film invalidated")
	return nil
}

// InvalidateProviders drops cached provider lists of a film in every region.
func (s *Service) InvalidateProviders(slug string) int {
	// "film" sorts before "region", so every regional key of the film
	// starts with this prefix.
	quoted, _ := json.Marshal(normalizeSlug(slug))
	return s.memo.InvalidatePattern(OpStreamingProviders + cache.KeySeparator + `{"film":` + string(quoted) + ",")
}

// InvalidateListings drops every cached listing and reports how many entries went.
func (s *Service) InvalidateListings() int {
	removed := 0
	for _, op := range ListingOperations {
		removed += s.memo.InvalidatePattern(op + cache.KeySeparator)
	}
	return removed
}

func memoize[T any](ctx context.Context, s *Service, operation string, query any, fetch cache.Producer[T]) (T, error) {
	params, err := cache.ParamsFrom(query)
	if err != nil {
		var zero T
		return zero, err
	}
	return cache.WithCache(ctx, s.memo, operation, params, fetch)
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
