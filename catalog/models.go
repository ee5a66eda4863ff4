package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Film is a row in the films table.
type Film struct {
	bun.BaseModel `bun:"table:films,alias:f"`

	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Slug          string    `bun:"slug,notnull,unique" json:"slug"`
	Title         string    `bun:"title,notnull" json:"title"`
	OriginalTitle string    `bun:"original_title" json:"original_title,omitempty"`
	Overview      string    `bun:"overview" json:"overview,omitempty"`
	Director      string    `bun:"director" json:"director,omitempty"`
	ReleaseDate   time.Time `bun:"release_date,notnull" json:"release_date"`
	ReleaseYear   int       `bun:"release_year,notnull" json:"release_year"`
	VoteAverage   float64   `bun:"vote_average,notnull,default:0" json:"vote_average"`
	VoteCount     int       `bun:"vote_count,notnull,default:0" json:"vote_count"`
	Popularity    float64   `bun:"popularity,notnull,default:0" json:"popularity"`
	PosterPath    string    `bun:"poster_path" json:"poster_path,omitempty"`
}

// FilmGenre links a film to one genre tag.
type FilmGenre struct {
	bun.BaseModel `bun:"table:film_genres,alias:fg"`

	FilmID uuid.UUID `bun:"film_id,pk,type:uuid" json:"film_id"`
	Genre  string    `bun:"genre,pk" json:"genre"`
}

// ProviderKind is the way a provider offers a film.
type ProviderKind string

const (
	ProviderFlatrate ProviderKind = "flatrate"
	ProviderRent     ProviderKind = "rent"
	ProviderBuy      ProviderKind = "buy"
	ProviderFree     ProviderKind = "free"
)

// StreamingProvider is a row in the film_providers table.
type StreamingProvider struct {
	bun.BaseModel `bun:"table:film_providers,alias:fp"`

	FilmID   uuid.UUID    `bun:"film_id,pk,type:uuid" json:"film_id"`
	Region   string       `bun:"region,pk" json:"region"`
	Provider string       `bun:"provider,pk" json:"provider"`
	Kind     ProviderKind `bun:"kind,pk" json:"kind"`
	LogoPath string       `bun:"logo_path" json:"logo_path,omitempty"`
}

// FilmID derives a stable identifier from a slug so reseeding keeps ids.
func FilmID(slug string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("moviehunt:film:"+slug))
}
