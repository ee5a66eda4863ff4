package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/moviehunt/querycache/pkg/testsupport"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, CreateSchema(context.Background(), db))
	return db
}

func loadSeeds(t *testing.T) []SeedFilm {
	t.Helper()

	var seeds []SeedFilm
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("films.json"), &seeds)
	return seeds
}

func newSeededSource(t *testing.T) *BunSource {
	t.Helper()

	db := newTestDB(t)
	require.NoError(t, Seed(context.Background(), db, loadSeeds(t)))
	return NewBunSource(db)
}

func slugs(films []Film) []string {
	out := make([]string, len(films))
	for i, f := range films {
		out[i] = f.Slug
	}
	return out
}

func TestCreateSchema_Idempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, CreateSchema(context.Background(), db))
}

func TestBunSource_TopRatedFilms(t *testing.T) {
	source := newSeededSource(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		query TopRatedQuery
		want  []string
	}{
		{
			name:  "vote floor drops obscure titles",
			query: TopRatedQuery{Limit: 10, MinRating: 8, MinVotes: 100},
			want:  []string{"alien", "heat", "the-thing"},
		},
		{
			name:  "no vote floor",
			query: TopRatedQuery{Limit: 2, MinRating: 8},
			want:  []string{"obscure-short", "alien"},
		},
		{
			name:  "rating above everything",
			query: TopRatedQuery{Limit: 10, MinRating: 9.5},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			films, err := source.TopRatedFilms(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, slugs(films))
		})
	}
}

func TestBunSource_FilmsByGenre(t *testing.T) {
	source := newSeededSource(t)

	films, err := source.FilmsByGenre(context.Background(), GenreQuery{Genre: "horror", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"alien", "the-thing"}, slugs(films))

	films, err = source.FilmsByGenre(context.Background(), GenreQuery{Genre: "western", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, films)
}

func TestBunSource_FilmsByYearRange(t *testing.T) {
	source := newSeededSource(t)

	films, err := source.FilmsByYearRange(context.Background(), YearRangeQuery{From: 1979, To: 1995, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"alien", "the-thing", "heat"}, slugs(films))
	assert.Equal(t, 1979, films[0].ReleaseYear)
}

func TestBunSource_LatestFilms(t *testing.T) {
	source := newSeededSource(t)

	q := LatestQuery{Limit: 2, Before: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}.
		Normalize(time.Time{})
	films, err := source.LatestFilms(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"past-lives", "obscure-short"}, slugs(films))
}

func TestBunSource_FilmBySlug(t *testing.T) {
	source := newSeededSource(t)
	ctx := context.Background()

	film, err := source.FilmBySlug(ctx, "heat")
	require.NoError(t, err)
	assert.Equal(t, "Heat", film.Title)
	assert.Equal(t, "Michael Mann", film.Director)
	assert.Equal(t, FilmID("heat"), film.ID)
	assert.Equal(t, 1995, film.ReleaseYear)

	_, err = source.FilmBySlug(ctx, "missing")
	assert.True(t, errors.Is(err, ErrFilmNotFound))
}

func TestBunSource_StreamingProviders(t *testing.T) {
	source := newSeededSource(t)
	ctx := context.Background()

	providers, err := source.StreamingProviders(ctx, FilmID("heat"), "US")
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "netflix", providers[0].Provider)
	assert.Equal(t, ProviderFlatrate, providers[0].Kind)
	assert.Equal(t, "apple-tv", providers[1].Provider)
	assert.Equal(t, ProviderRent, providers[1].Kind)

	providers, err = source.StreamingProviders(ctx, FilmID("alien"), "US")
	require.NoError(t, err)
	assert.NotNil(t, providers)
	assert.Empty(t, providers)
}

func TestSeedFilm_BadReleaseDate(t *testing.T) {
	_, err := SeedFilm{Slug: "x", ReleaseDate: "15/12/1995"}.Film()
	assert.Error(t, err)
}

func TestSeedFilm_NormalizesSlug(t *testing.T) {
	film, err := SeedFilm{Slug: " Heat ", ReleaseDate: "1995-12-15"}.Film()
	require.NoError(t, err)

	assert.Equal(t, "heat", film.Slug)
	assert.Equal(t, FilmID("heat"), film.ID)
}

func TestSeed_MixedCaseSlugIsFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db, []SeedFilm{{Slug: "Heat", Title: "Heat", ReleaseDate: "1995-12-15"}}))

	film, err := NewBunSource(db).FilmBySlug(ctx, "heat")
	require.NoError(t, err)
	assert.Equal(t, "Heat", film.Title)
}

func TestSeed_Empty(t *testing.T) {
	assert.NoError(t, Seed(context.Background(), newTestDB(t), nil))
}
