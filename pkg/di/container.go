package di

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/sirupsen/logrus"

	"github.com/moviehunt/querycache/cache"
	"github.com/moviehunt/querycache/catalog"
	"github.com/moviehunt/querycache/repositorycache"
)

// Container owns one store and the memoizer over it, and hands both to the
// services and repositories built from it so they share entries and stats.
type Container struct {
	memo   *cache.Memoizer
	config cache.Config
	logger logrus.FieldLogger
}

type Option func(*Container)

// WithLogger sets the logger passed to every component the container builds.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContainer validates config and builds the configured store.
func NewContainer(config cache.Config, opts ...Option) (*Container, error) {
	c := &Container{
		config: config,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	memo, err := cache.NewMemoizerFromConfig(config, cache.WithLogger(c.logger))
	if err != nil {
		return nil, err
	}
	c.memo = memo

	c.logger.WithFields(logrus.Fields{
		"backend":     config.Backend,
		"ttl":         config.TTL,
		"deduplicate": config.Deduplicate,
	}).Debug("cache container ready")

	return c, nil
}

// NewContainerWithDefaults uses cache.DefaultConfig.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), opts...)
}

func (c *Container) Memoizer() *cache.Memoizer {
	return c.memo
}

func (c *Container) Store() cache.Store {
	return c.memo.Store()
}

// Config returns a copy of the configuration the container was built with.
func (c *Container) Config() cache.Config {
	return c.config
}

// NewCatalog wraps source in a catalog service backed by the container's memoizer.
func (c *Container) NewCatalog(source catalog.Source, opts ...catalog.ServiceOption) *catalog.Service {
	all := append([]catalog.ServiceOption{catalog.WithServiceLogger(c.logger)}, opts...)
	return catalog.NewService(source, c.memo, all...)
}

// NewCachedRepository wraps base with the container's memoizer.
// Go methods cannot take type parameters, hence the package-level function:
//
//	films := di.NewCachedRepository[*catalog.Film](container, baseRepo)
func NewCachedRepository[T any](container *Container, base repository.Repository[T], opts ...repositorycache.Option) *repositorycache.CachedRepository[T] {
	all := append([]repositorycache.Option{repositorycache.WithLogger(container.logger)}, opts...)
	return repositorycache.New(base, container.memo, all...)
}
