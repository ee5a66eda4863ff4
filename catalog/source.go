package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ErrFilmNotFound is returned when no film has the requested slug.
var ErrFilmNotFound = errors.New("catalog: film not found")

// Source answers catalog reads. Queries arrive normalized and validated.
type Source interface {
	TopRatedFilms(ctx context.Context, q TopRatedQuery) ([]Film, error)
	FilmsByGenre(ctx context.Context, q GenreQuery) ([]Film, error)
	FilmsByYearRange(ctx context.Context, q YearRangeQuery) ([]Film, error)
	LatestFilms(ctx context.Context, q LatestQuery) ([]Film, error)
	FilmBySlug(ctx context.Context, slug string) (Film, error)
	StreamingProviders(ctx context.Context, filmID uuid.UUID, region string) ([]StreamingProvider, error)
}

var _ Source = (*BunSource)(nil)

// BunSource reads the catalog through bun.
type BunSource struct {
	db bun.IDB
}

func NewBunSource(db bun.IDB) *BunSource {
	return &BunSource{db: db}
}

func (s *BunSource) TopRatedFilms(ctx context.Context, q TopRatedQuery) ([]Film, error) {
	films := make([]Film, 0, q.Limit)
	err := s.db.NewSelect().
		Model(&films).
		Where("f.vote_average >= ?", q.MinRating).
		Where("f.vote_count >= ?", q.MinVotes).
		OrderExpr("f.vote_average DESC, f.vote_count DESC, f.title ASC").
		Limit(q.Limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: top rated films: %w", err)
	}
	return films, nil
}

func (s *BunSource) FilmsByGenre(ctx context.Context, q GenreQuery) ([]Film, error) {
	films := make([]Film, 0, q.Limit)
	err := s.db.NewSelect().
		Model(&films).
		Join("JOIN film_genres AS fg ON fg.film_id = f.id").
		Where("fg.genre = ?", q.Genre).
		OrderExpr("f.popularity DESC, f.title ASC").
		Limit(q.Limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: films by genre %q: %w", q.Genre, err)
	}
	return films, nil
}

func (s *BunSource) FilmsByYearRange(ctx context.Context, q YearRangeQuery) ([]Film, error) {
	films := make([]Film, 0, q.Limit)
	err := s.db.NewSelect().
		Model(&films).
		Where("f.release_year BETWEEN ? AND ?", q.From, q.To).
		OrderExpr("f.release_year ASC, f.popularity DESC, f.title ASC").
		Limit(q.Limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: films between %d and %d: %w", q.From, q.To, err)
	}
	return films, nil
}

func (s *BunSource) LatestFilms(ctx context.Context, q LatestQuery) ([]Film, error) {
	films := make([]Film, 0, q.Limit)
	err := s.db.NewSelect().
		Model(&films).
		Where("f.release_date <= ?", q.Before).
		OrderExpr("f.release_date DESC, f.title ASC").
		Limit(q.Limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: latest films: %w", err)
	}
	return films, nil
}

func (s *BunSource) FilmBySlug(ctx context.Context, slug string) (Film, error) {
	var film Film
	err := s.db.NewSelect().
		Model(&film).
		Where("f.slug = ?", slug).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Film{}, fmt.Errorf("%w: %s", ErrFilmNotFound, slug)
	}
	if err != nil {
		return Film{}, fmt.Errorf("catalog: film %q: %w", slug, err)
	}
	return film, nil
}

func (s *BunSource) StreamingProviders(ctx context.Context, filmID uuid.UUID, region string) ([]StreamingProvider, error) {
	var providers []StreamingProvider
	err := s.db.NewSelect().
		Model(&providers).
		Where("fp.film_id = ?", filmID).
		Where("fp.region = ?", region).
		OrderExpr("fp.kind ASC, fp.provider ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: providers for %s in %s: %w", filmID, region, err)
	}
	if providers == nil {
		providers = []StreamingProvider{}
	}
	return providers, nil
}
