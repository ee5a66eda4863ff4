package cache

import (
	"time"

	"github.com/moviehunt/querycache/internal/cacheinfra"
)

// Backend names a store implementation.
type Backend string

const (
	// BackendMemory is the unbounded store with lazy TTL expiry.
	BackendMemory Backend = Backend(cacheinfra.BackendMemory)
	// BackendSturdyc is the capacity bounded sturdyc store.
	BackendSturdyc Backend = Backend(cacheinfra.BackendSturdyc)
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Backend            Backend
	TTL                time.Duration
	Capacity           int
	NumShards          int
	EvictionPercentage int
	Deduplicate        bool
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewStore constructs the store selected by cfg.Backend.
func NewStore(cfg Config) (Store, error) {
	internal := cfg.toInternal()
	if err := internal.Validate(); err != nil {
		return nil, err
	}

	if internal.Backend == cacheinfra.BackendSturdyc {
		store, err := cacheinfra.NewSturdycStore(internal, cacheinfra.SystemClock{})
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	store, err := cacheinfra.NewMemoryStore(internal.TTL, cacheinfra.SystemClock{})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewMemoizerFromConfig builds the configured store and wraps it in a Memoizer.
// opts are applied after the config derived options.
func NewMemoizerFromConfig(cfg Config, opts ...Option) (*Memoizer, error) {
	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}

	all := append([]Option{WithDeduplication(cfg.Deduplicate)}, opts...)
	return NewMemoizer(store, all...), nil
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Backend:            cacheinfra.Backend(c.Backend),
		TTL:                c.TTL,
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		EvictionPercentage: c.EvictionPercentage,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Backend:            Backend(cfg.Backend),
		TTL:                cfg.TTL,
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		EvictionPercentage: cfg.EvictionPercentage,
	}
}
