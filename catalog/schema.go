package catalog

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var models = []any{
	(*Film)(nil),
	(*FilmGenre)(nil),
	(*StreamingProvider)(nil),
}

// CreateSchema creates the catalog tables and indexes when missing.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("catalog: create table for %T: %w", model, err)
		}
	}

	indexes := []struct {
		model  any
		name   string
		column string
	}{
		{(*Film)(nil), "films_release_year_idx", "release_year"},
		{(*Film)(nil), "films_vote_average_idx", "vote_average"},
		{(*FilmGenre)(nil), "film_genres_genre_idx", "genre"},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("catalog: create index %s: %w", idx.name, err)
		}
	}
	return nil
}
