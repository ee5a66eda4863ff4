package catalog

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MinYear is the year of the oldest surviving motion picture.
	MinYear = 1888
	MaxYear = 2100
)

// TopRatedQuery selects films by average vote.
type TopRatedQuery struct {
	Limit     int     `json:"limit"`
	MinRating float64 `json:"minRating"`
	MinVotes  int     `json:"minVotes,omitempty"`
}

// Normalize fills defaults.
func (q TopRatedQuery) Normalize() TopRatedQuery {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	return q
}

func (q TopRatedQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Limit, validation.Min(1), validation.Max(MaxLimit)),
		validation.Field(&q.MinRating, validation.Min(0.0), validation.Max(10.0)),
		validation.Field(&q.MinVotes, validation.Min(0)),
	)
}

// GenreQuery selects films tagged with a genre, most popular first.
type GenreQuery struct {
	Genre string `json:"genre"`
	Limit int    `json:"limit"`
}

func (q GenreQuery) Normalize() GenreQuery {
	q.Genre = strings.ToLower(strings.TrimSpace(q.Genre))
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	return q
}

func (q GenreQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Genre, validation.Required, validation.Length(1, 64)),
		validation.Field(&q.Limit, validation.Min(1), validation.Max(MaxLimit)),
	)
}

// YearRangeQuery selects films released between From and To inclusive.
type YearRangeQuery struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Limit int `json:"limit"`
}

// Normalize fills defaults. A zero To selects the single year From.
func (q YearRangeQuery) Normalize() YearRangeQuery {
	if q.To == 0 {
		q.To = q.From
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	return q
}

func (q YearRangeQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.From, validation.Required, validation.Min(MinYear), validation.Max(MaxYear)),
		validation.Field(&q.To, validation.Required, validation.Min(q.From), validation.Max(MaxYear)),
		validation.Field(&q.Limit, validation.Min(1), validation.Max(MaxLimit)),
	)
}

// LatestQuery selects the most recent releases on or before Before.
type LatestQuery struct {
	Limit  int       `json:"limit"`
	Before time.Time `json:"before"`
}

// Normalize fills defaults and truncates Before to the end of its UTC day
// so queries issued during the same day share a cache entry.
func (q LatestQuery) Normalize(now time.Time) LatestQuery {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Before.IsZero() {
		q.Before = now
	}
	day := q.Before.UTC().Truncate(24 * time.Hour)
	q.Before = day.Add(24*time.Hour - time.Second)
	return q
}

func (q LatestQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Limit, validation.Min(1), validation.Max(MaxLimit)),
		validation.Field(&q.Before, validation.Required),
	)
}
