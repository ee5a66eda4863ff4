package repositorycache

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/moviehunt/querycache/cache"
)

var _ repository.Repository[any] = (*CachedRepository[any])(nil)

// errUnrenderableCriteria marks reads whose criteria cannot be turned into a key.
var errUnrenderableCriteria = errors.New("repositorycache: criteria need a query renderer")

// listResult keeps records and total together under one cache entry.
type listResult[T any] struct {
	Records []T `json:"records"`
	Total   int `json:"total"`
}

// CachedRepository decorates a go-repository-bun repository with read-through caching.
type CachedRepository[T any] struct {
	base      repository.Repository[T]
	memo      *cache.Memoizer
	namespace string
	renderer  bun.IDB
	logger    logrus.FieldLogger
}

type Option func(*config)

type config struct {
	namespace string
	renderer  bun.IDB
	logger    logrus.FieldLogger
}

// WithNamespace overrides the operation prefix derived from the record type.
func WithNamespace(namespace string) Option {
	return func(c *config) {
		c.namespace = namespace
	}
}

// WithQueryRenderer lets reads with select criteria be cached. Criteria are
// applied to an empty select on db and the rendered SQL becomes part of the key.
// Without a renderer only reads without criteria are cached.
func WithQueryRenderer(db bun.IDB) Option {
	return func(c *config) {
		c.renderer = db
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New wraps base so reads go through memo.
func New[T any](base repository.Repository[T], memo *cache.Memoizer, opts ...Option) *CachedRepository[T] {
	cfg := config{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.namespace == "" {
		cfg.namespace = namespaceFor[T]()
	}

	return &CachedRepository[T]{
		base:      base,
		memo:      memo,
		namespace: cfg.namespace,
		renderer:  cfg.renderer,
		logger:    cfg.logger,
	}
}

// Namespace returns the operation prefix, e.g. "film" for Film records.
func (c *CachedRepository[T]) Namespace() string {
	return c.namespace
}

// Get retrieves a single record using the provided criteria, with caching
func (c *CachedRepository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	return read(ctx, c, "Get", cache.Params{}, criteria, func(ctx context.Context) (T, error) {
		return c.base.Get(ctx, criteria...)
	})
}

// GetByID retrieves a record by ID with optional criteria, with caching
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	return read(ctx, c, "GetByID", cache.Params{"id": id}, criteria, func(ctx context.Context) (T, error) {
		return c.base.GetByID(ctx, id, criteria...)
	})
}

// GetByIdentifier retrieves a record by identifier with optional criteria, with caching
func (c *CachedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return read(ctx, c, "GetByIdentifier", cache.Params{"identifier": identifier}, criteria, func(ctx context.Context) (T, error) {
		return c.base.GetByIdentifier(ctx, identifier, criteria...)
	})
}

// List retrieves multiple records using the provided criteria, with caching
func (c *CachedRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	res, err := read(ctx, c, "List", cache.Params{}, criteria, func(ctx context.Context) (listResult[T], error) {
		records, total, err := c.base.List(ctx, criteria...)
		return listResult[T]{Records: records, Total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return res.Records, res.Total, nil
}

// Count returns the number of records matching the criteria, with caching
func (c *CachedRepository[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	return read(ctx, c, "Count", cache.Params{}, criteria, func(ctx context.Context) (int, error) {
		return c.base.Count(ctx, criteria...)
	})
}

// read runs fetch through the memoizer under "<namespace>.<method>". Reads
// whose criteria cannot be rendered, or whose context opts out, go straight
// to the base repository.
func read[T any, R any](ctx context.Context, c *CachedRepository[T], method string, params cache.Params, criteria []repository.SelectCriteria, fetch cache.Producer[R]) (R, error) {
	operation := c.operation(method)

	if cacheBypassed(ctx) {
		return fetch(ctx)
	}

	if len(criteria) > 0 {
		rendered, err := c.renderCriteria(criteria)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"operation": operation,
				"error":     err,
			}).Debug("criteria not cacheable, reading through")
			return fetch(ctx)
		}
		params["criteria"] = rendered
	}

	return cache.WithCache(ctx, c.memo, operation, params, fetch)
}

func (c *CachedRepository[T]) operation(method string) string {
	return c.namespace + "." + method
}

func (c *CachedRepository[T]) renderCriteria(criteria []repository.SelectCriteria) (string, error) {
	if c.renderer == nil {
		return "", errUnrenderableCriteria
	}

	q := c.renderer.NewSelect()
	for _, apply := range criteria {
		if apply != nil {
			q = apply(q)
		}
	}

	b, err := q.AppendQuery(schema.NewFormatter(c.renderer.Dialect()), nil)
	if err != nil {
		return "", fmt.Errorf("repositorycache: render criteria: %w", err)
	}
	return string(b), nil
}

// Invalidate drops every cached read of this repository and reports how many entries went.
func (c *CachedRepository[T]) Invalidate() int {
	removed := c.memo.InvalidatePattern(c.namespace + ".")
	c.logger.WithFields(logrus.Fields{
		"namespace": c.namespace,
		"removed":   removed,
	}).Debug("repository cache invalidated")
	return removed
}

func (c *CachedRepository[T]) afterWrite(err error) {
	if err == nil {
		c.Invalidate()
	}
}

func (c *CachedRepository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.Create(ctx, record, criteria...)
	c.afterWrite(err)
	return result, err
}

// CreateTx invalidates as soon as the statement succeeds, before commit.
func (c *CachedRepository[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.CreateTx(ctx, tx, record, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateMany(ctx, records, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateManyTx(ctx, tx, records, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	result, err := c.base.GetOrCreate(ctx, record)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	result, err := c.base.GetOrCreateTx(ctx, tx, record)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Update(ctx, record, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpdateTx(ctx, tx, record, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateMany(ctx, records, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateManyTx(ctx, tx, records, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Upsert(ctx, record, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpsertTx(ctx, tx, record, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertMany(ctx, records, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertManyTx(ctx, tx, records, criteria...)
	c.afterWrite(err)
	return result, err
}

func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	err := c.base.Delete(ctx, record)
	c.afterWrite(err)
	return err
}

func (c *CachedRepository[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.DeleteTx(ctx, tx, record)
	c.afterWrite(err)
	return err
}

func (c *CachedRepository[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteMany(ctx, criteria...)
	c.afterWrite(err)
	return err
}

func (c *CachedRepository[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteManyTx(ctx, tx, criteria...)
	c.afterWrite(err)
	return err
}

func (c *CachedRepository[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhere(ctx, criteria...)
	c.afterWrite(err)
	return err
}

func (c *CachedRepository[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhereTx(ctx, tx, criteria...)
	c.afterWrite(err)
	return err
}

func (c *CachedRepository[T]) ForceDelete(ctx context.Context, record T) error {
	err := c.base.ForceDelete(ctx, record)
	c.afterWrite(err)
	return err
}

func (c *CachedRepository[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.ForceDeleteTx(ctx, tx, record)
	c.afterWrite(err)
	return err
}

// Reads inside a transaction may see uncommitted rows, so they never touch the cache.

func (c *CachedRepository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIDTx(ctx, tx, id, criteria...)
}

func (c *CachedRepository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	return c.base.ListTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return c.base.CountTx(ctx, tx, criteria...)
}

func (c *CachedRepository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	return c.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
}

// Raw is never cached; the SQL may write.
func (c *CachedRepository[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return c.base.Raw(ctx, sql, args...)
}

func (c *CachedRepository[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return c.base.RawTx(ctx, tx, sql, args...)
}

func (c *CachedRepository[T]) Handlers() repository.ModelHandlers[T] {
	return c.base.Handlers()
}

// namespaceFor derives a snake_case namespace from T, dereferencing pointers.
func namespaceFor[T any]() string {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	name := typ.Name()
	if name == "" {
		name = typ.String()
	}
	return toSnake(name)
}
