package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// SeedFilm is the import format for a film with its genres and providers.
type SeedFilm struct {
	Slug          string         `json:"slug"`
	Title         string         `json:"title"`
	OriginalTitle string         `json:"original_title"`
	Overview      string         `json:"overview"`
	Director      string         `json:"director"`
	ReleaseDate   string         `json:"release_date"`
	VoteAverage   float64        `json:"vote_average"`
	VoteCount     int            `json:"vote_count"`
	Popularity    float64        `json:"popularity"`
	PosterPath    string         `json:"poster_path"`
	Genres        []string       `json:"genres"`
	Providers     []SeedProvider `json:"providers"`
}

type SeedProvider struct {
	Provider string       `json:"provider"`
	Kind     ProviderKind `json:"kind"`
	Region   string       `json:"region"`
	LogoPath string       `json:"logo_path"`
}

// Film converts the seed entry into a row. ReleaseDate uses 2006-01-02.
func (s SeedFilm) Film() (Film, error) {
	released, err := time.Parse(time.DateOnly, s.ReleaseDate)
	if err != nil {
		return Film{}, fmt.Errorf("catalog: film %q release date: %w", s.Slug, err)
	}
	slug := normalizeSlug(s.Slug)
	return Film{
		ID:            FilmID(slug),
		Slug:          slug,
		Title:         s.Title,
		OriginalTitle: s.OriginalTitle,
		Overview:      s.Overview,
		Director:      s.Director,
		ReleaseDate:   released.UTC(),
		ReleaseYear:   released.Year(),
		VoteAverage:   s.VoteAverage,
		VoteCount:     s.VoteCount,
		Popularity:    s.Popularity,
		PosterPath:    s.PosterPath,
	}, nil
}

// Seed inserts films with their genres and providers in one transaction.
func Seed(ctx context.Context, db bun.IDB, seeds []SeedFilm) error {
	if len(seeds) == 0 {
		return nil
	}

	films := make([]Film, 0, len(seeds))
	var genres []FilmGenre
	var providers []StreamingProvider

	for _, seed := range seeds {
		film, err := seed.Film()
		if err != nil {
			return err
		}
		films = append(films, film)

		for _, genre := range seed.Genres {
			genres = append(genres, FilmGenre{
				FilmID: film.ID,
				Genre:  strings.ToLower(strings.TrimSpace(genre)),
			})
		}
		for _, p := range seed.Providers {
			providers = append(providers, StreamingProvider{
				FilmID:   film.ID,
				Region:   strings.ToUpper(p.Region),
				Provider: p.Provider,
				Kind:     p.Kind,
				LogoPath: p.LogoPath,
			})
		}
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&films).Exec(ctx); err != nil {
			return fmt.Errorf("catalog: insert films: %w", err)
		}
		if len(genres) > 0 {
			if _, err := tx.NewInsert().Model(&genres).Exec(ctx); err != nil {
				return fmt.Errorf("catalog: insert genres: %w", err)
			}
		}
		if len(providers) > 0 {
			if _, err := tx.NewInsert().Model(&providers).Exec(ctx); err != nil {
				return fmt.Errorf("catalog: insert providers: %w", err)
			}
		}
		return nil
	})
}
