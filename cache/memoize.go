package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrInvalidResultType is returned when a cached value cannot be
	// asserted to the type requested by the caller.
	ErrInvalidResultType = errors.New("cache: cached value has unexpected type")

	// ErrNilProducer is returned by WithCache when no producer is supplied.
	ErrNilProducer = errors.New("cache: producer is nil")
)

// Memoizer composes a Store, a KeyBuilder and a caller supplied Producer into
// read-through caching. It holds no global state; construct one per store and
// pass it to the code that needs it.
type Memoizer struct {
	store  Store
	keys   KeyBuilder
	logger logrus.FieldLogger
	dedupe bool
	group  singleflight.Group

	hits           atomic.Uint64
	misses         atomic.Uint64
	producerErrors atomic.Uint64
	invalidations  atomic.Uint64
}

// Option configures a Memoizer.
type Option func(*Memoizer)

// WithKeyBuilder replaces the default JSON key builder.
func WithKeyBuilder(kb KeyBuilder) Option {
	return func(m *Memoizer) {
		if kb != nil {
			m.keys = kb
		}
	}
}

// WithLogger sets the logger used for debug entries. Default discards.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Memoizer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDeduplication collapses concurrent misses for the same key into a
// single producer call. Off by default: concurrent misses each run the
// producer and the last one to finish wins the cache slot.
func WithDeduplication(enabled bool) Option {
	return func(m *Memoizer) {
		m.dedupe = enabled
	}
}

// NewMemoizer creates a Memoizer over store. store must not be nil.
func NewMemoizer(store Store, opts ...Option) *Memoizer {
	m := &Memoizer{
		store:  store,
		keys:   NewKeyBuilder(),
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Store returns the underlying store.
func (m *Memoizer) Store() Store {
	return m.store
}

// Key returns the cache key for operation and params.
func (m *Memoizer) Key(operation string, params Params) (string, error) {
	return m.keys.BuildKey(operation, params)
}

// WithCache returns the cached result of operation for params when fresh,
// otherwise it calls producer, caches a successful result and returns it.
//
// Producer errors are returned unchanged and never cached; nothing is retried.
// ctx is handed to producer only, WithCache itself never cancels or times out.
//
// Since Go methods cannot have type parameters, this is a package-level function.
func WithCache[T any](ctx context.Context, m *Memoizer, operation string, params Params, producer Producer[T]) (T, error) {
	var zero T
	if producer == nil {
		return zero, ErrNilProducer
	}

	key, err := m.keys.BuildKey(operation, params)
	if err != nil {
		return zero, err
	}

	log := m.logger.WithFields(logrus.Fields{"operation": operation, "key": key})

	if cached, ok := m.store.Get(key); ok {
		m.hits.Add(1)
		log.Debug("cache hit")
		return assertResult[T](cached)
	}

	m.misses.Add(1)
	log.Debug("cache miss")

	if !m.dedupe {
		value, err := producer(ctx)
		if err != nil {
			m.producerErrors.Add(1)
			log.WithError(err).Debug("producer failed")
			return zero, err
		}
		m.store.Set(key, value)
		return value, nil
	}

	shared, err, _ := m.group.Do(key, func() (any, error) {
		value, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		m.store.Set(key, value)
		return value, nil
	})
	if err != nil {
		m.producerErrors.Add(1)
		log.WithError(err).Debug("producer failed")
		return zero, err
	}
	return assertResult[T](shared)
}

func assertResult[T any](value any) (T, error) {
	var zero T
	if value == nil {
		return zero, nil
	}
	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrInvalidResultType, value, zero)
	}
	return typed, nil
}

// Invalidate drops the entry cached for operation and params.
func (m *Memoizer) Invalidate(operation string, params Params) error {
	key, err := m.keys.BuildKey(operation, params)
	if err != nil {
		return err
	}
	m.InvalidateKey(key)
	return nil
}

// InvalidateKey drops a single entry by its exact key.
func (m *Memoizer) InvalidateKey(key string) {
	m.store.Invalidate(key)
	m.invalidations.Add(1)
	m.logger.WithField("key", key).Debug("cache key invalidated")
}

// InvalidatePattern drops every entry whose key contains substring.
func (m *Memoizer) InvalidatePattern(substring string) int {
	removed := m.store.InvalidatePattern(substring)
	m.invalidations.Add(1)
	m.logger.WithFields(logrus.Fields{"pattern": substring, "removed": removed}).Debug("cache pattern invalidated")
	return removed
}

// Clear drops every entry.
func (m *Memoizer) Clear() {
	m.store.Clear()
	m.invalidations.Add(1)
	m.logger.Debug("cache cleared")
}

// Stats is a snapshot of Memoizer counters.
type Stats struct {
	Hits           uint64
	Misses         uint64
	ProducerErrors uint64
	Invalidations  uint64
	Entries        int
}

// HitRate returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns the current counters.
func (m *Memoizer) Stats() Stats {
	return Stats{
		Hits:           m.hits.Load(),
		Misses:         m.misses.Load(),
		ProducerErrors: m.producerErrors.Load(),
		Invalidations:  m.invalidations.Load(),
		Entries:        m.store.Len(),
	}
}
