package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/moviehunt/querycache/catalog"
)

func newTopRatedCommand(ctx *commandContext) *cobra.Command {
	var q catalog.TopRatedQuery

	cmd := &cobra.Command{
		Use:   "top-rated",
		Short: "List the best rated films",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, ctx, func(c context.Context, svc *catalog.Service) ([]catalog.Film, error) {
				return svc.TopRatedFilms(c, q)
			}, renderFilms)
		},
	}

	cmd.Flags().IntVarP(&q.Limit, "limit", "n", catalog.DefaultLimit, "Maximum number of films")
	cmd.Flags().Float64Var(&q.MinRating, "min-rating", 0, "Minimum average vote (0-10)")
	cmd.Flags().IntVar(&q.MinVotes, "min-votes", 0, "Minimum number of votes")
	return cmd
}

func newGenreCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "genre <genre>",
		Short: "List the most popular films of a genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := catalog.GenreQuery{Genre: args[0], Limit: limit}
			return runQuery(cmd, ctx, func(c context.Context, svc *catalog.Service) ([]catalog.Film, error) {
				return svc.FilmsByGenre(c, q)
			}, renderFilms)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", catalog.DefaultLimit, "Maximum number of films")
	return cmd
}

func newYearsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "years <from> [to]",
		Short: "List films released in a year or an inclusive range of years",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := catalog.YearRangeQuery{Limit: limit}
			var err error
			if q.From, err = parseYear(args[0]); err != nil {
				return err
			}
			if len(args) == 2 {
				if q.To, err = parseYear(args[1]); err != nil {
					return err
				}
			}
			return runQuery(cmd, ctx, func(c context.Context, svc *catalog.Service) ([]catalog.Film, error) {
				return svc.FilmsByYear(c, q)
			}, renderFilms)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", catalog.DefaultLimit, "Maximum number of films")
	return cmd
}

func newLatestCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var before string

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "List the most recent releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := catalog.LatestQuery{Limit: limit}
			if before != "" {
				t, err := time.Parse(time.DateOnly, before)
				if err != nil {
					return fmt.Errorf("--before must be YYYY-MM-DD: %w", err)
				}
				q.Before = t
			}
			return runQuery(cmd, ctx, func(c context.Context, svc *catalog.Service) ([]catalog.Film, error) {
				return svc.LatestFilms(c, q)
			}, renderFilms)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", catalog.DefaultLimit, "Maximum number of films")
	cmd.Flags().StringVar(&before, "before", "", "Only films released on or before this date (YYYY-MM-DD), default today")
	return cmd
}

func newFilmCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "film <slug>",
		Short: "Show one film",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, ctx, func(c context.Context, svc *catalog.Service) (catalog.Film, error) {
				return svc.FilmBySlug(c, args[0])
			}, renderFilm)
		},
	}
}

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	var region string

	cmd := &cobra.Command{
		Use:   "providers <slug>",
		Short: "Show where a film streams in a region",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, ctx, func(c context.Context, svc *catalog.Service) ([]catalog.StreamingProvider, error) {
				return svc.StreamingProviders(c, args[0], region)
			}, func(providers []catalog.StreamingProvider) string {
				return renderProviders(strings.ToUpper(region), providers)
			})
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "US", "ISO 3166-1 country code")
	return cmd
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return year, nil
}
