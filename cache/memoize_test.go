package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviehunt/querycache/internal/cacheinfra"
	"github.com/moviehunt/querycache/pkg/testsupport"
)

func newTestMemoizer(t *testing.T, ttl time.Duration, opts ...Option) (*Memoizer, *testsupport.FakeClock) {
	t.Helper()

	clock := testsupport.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	store, err := cacheinfra.NewMemoryStore(ttl, clock)
	require.NoError(t, err)

	return NewMemoizer(store, opts...), clock
}

// countingProducer returns the next value from values on every call.
type countingProducer struct {
	calls  atomic.Int32
	values [][]string
}

func (p *countingProducer) produce(ctx context.Context) ([]string, error) {
	n := int(p.calls.Add(1)) - 1
	if n >= len(p.values) {
		n = len(p.values) - 1
	}
	return p.values[n], nil
}

func TestWithCache_HitAvoidsProducer(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()
	producer := &countingProducer{values: [][]string{{"A", "B"}, {"X"}}}

	first, err := WithCache(ctx, memo, "op", Params{"a": 1}, producer.produce)
	require.NoError(t, err)

	second, err := WithCache(ctx, memo, "op", Params{"a": 1}, producer.produce)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), producer.calls.Load())

	stats := memo.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-9)
}

func TestWithCache_KeyOrderDoesNotMatter(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()
	producer := &countingProducer{values: [][]string{{"A"}}}

	first := Params{}
	first["limit"] = 10
	first["minRating"] = 6

	second := Params{}
	second["minRating"] = 6
	second["limit"] = 10

	_, err := WithCache(ctx, memo, "getTopRatedFilms", first, producer.produce)
	require.NoError(t, err)
	_, err = WithCache(ctx, memo, "getTopRatedFilms", second, producer.produce)
	require.NoError(t, err)

	assert.Equal(t, int32(1), producer.calls.Load())
}

func TestWithCache_Expiry(t *testing.T) {
	memo, clock := newTestMemoizer(t, time.Minute)
	ctx := context.Background()
	producer := &countingProducer{values: [][]string{{"old"}, {"new"}}}

	_, err := WithCache(ctx, memo, "op", nil, producer.produce)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	require.Equal(t, 1, memo.Store().Len(), "stale entry is still held before the read")

	got, err := WithCache(ctx, memo, "op", nil, producer.produce)
	require.NoError(t, err)

	assert.Equal(t, []string{"new"}, got)
	assert.Equal(t, int32(2), producer.calls.Load())
}

func TestWithCache_Invalidate(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()
	target := &countingProducer{values: [][]string{{"1"}, {"2"}}}
	other := &countingProducer{values: [][]string{{"other"}}}

	_, err := WithCache(ctx, memo, "getFilmBySlug", Params{"slug": "heat"}, target.produce)
	require.NoError(t, err)
	_, err = WithCache(ctx, memo, "getFilmBySlug", Params{"slug": "ronin"}, other.produce)
	require.NoError(t, err)

	require.NoError(t, memo.Invalidate("getFilmBySlug", Params{"slug": "heat"}))

	got, err := WithCache(ctx, memo, "getFilmBySlug", Params{"slug": "heat"}, target.produce)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, got)
	assert.Equal(t, int32(2), target.calls.Load())

	_, err = WithCache(ctx, memo, "getFilmBySlug", Params{"slug": "ronin"}, other.produce)
	require.NoError(t, err)
	assert.Equal(t, int32(1), other.calls.Load(), "other keys stay cached")

	assert.Equal(t, uint64(1), memo.Stats().Invalidations)
}

func TestWithCache_InvalidateKeyAndClear(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()
	producer := &countingProducer{values: [][]string{{"v"}}}

	_, err := WithCache(ctx, memo, "a", nil, producer.produce)
	require.NoError(t, err)
	_, err = WithCache(ctx, memo, "b", nil, producer.produce)
	require.NoError(t, err)

	key, err := memo.Key("a", nil)
	require.NoError(t, err)
	memo.InvalidateKey(key)
	assert.Equal(t, 1, memo.Store().Len())

	memo.Clear()
	assert.Equal(t, 0, memo.Store().Len())
	assert.Equal(t, uint64(2), memo.Stats().Invalidations)
}

func TestWithCache_PatternInvalidation(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()
	top := &countingProducer{values: [][]string{{"top"}}}
	latest := &countingProducer{values: [][]string{{"latest"}}}

	for _, limit := range []int{10, 20, 30} {
		_, err := WithCache(ctx, memo, "getTopRatedFilms", Params{"limit": limit}, top.produce)
		require.NoError(t, err)
	}
	_, err := WithCache(ctx, memo, "getLatestFilms", Params{"limit": 10}, latest.produce)
	require.NoError(t, err)

	removed := memo.InvalidatePattern("getTopRatedFilms")
	assert.Equal(t, 3, removed)

	_, err = WithCache(ctx, memo, "getLatestFilms", Params{"limit": 10}, latest.produce)
	require.NoError(t, err)
	assert.Equal(t, int32(1), latest.calls.Load(), "unrelated operations stay cached")

	_, err = WithCache(ctx, memo, "getTopRatedFilms", Params{"limit": 10}, top.produce)
	require.NoError(t, err)
	assert.Equal(t, int32(4), top.calls.Load())
}

func TestWithCache_FailureIsNotCached(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()
	errUpstream := errors.New("upstream unavailable")

	var calls atomic.Int32
	producer := func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errUpstream
		}
		return 42, nil
	}

	_, err := WithCache(ctx, memo, "op", nil, producer)
	require.Error(t, err)
	assert.Same(t, errUpstream, err, "producer error is returned verbatim")
	assert.Equal(t, 0, memo.Store().Len())

	got, err := WithCache(ctx, memo, "op", nil, producer)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, uint64(1), memo.Stats().ProducerErrors)
}

func TestWithCache_ExampleScenario(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()
	fetchFn := &countingProducer{values: [][]string{{"A", "B"}, {"A", "B", "C"}}}
	params := Params{"limit": 10, "minRating": 6}

	first, err := WithCache(ctx, memo, "getTopRatedFilms", params, fetchFn.produce)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, first)

	second, err := WithCache(ctx, memo, "getTopRatedFilms", params, fetchFn.produce)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, second)
	assert.Equal(t, int32(1), fetchFn.calls.Load())

	memo.InvalidatePattern("getTopRatedFilms")

	third, err := WithCache(ctx, memo, "getTopRatedFilms", params, fetchFn.produce)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, third)
}

func TestWithCache_KeyErrorSkipsProducer(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)

	called := false
	_, err := WithCache(context.Background(), memo, "op", Params{"fn": func() {}}, func(ctx context.Context) (string, error) {
		called = true
		return "", nil
	})

	var keyErr *KeySerializationError
	require.ErrorAs(t, err, &keyErr)
	assert.False(t, called)
}

func TestWithCache_NilProducer(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)

	_, err := WithCache[string](context.Background(), memo, "op", nil, nil)
	assert.ErrorIs(t, err, ErrNilProducer)
}

func TestWithCache_TypeAssertionFailure(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()

	_, err := WithCache(ctx, memo, "op", nil, func(ctx context.Context) (string, error) {
		return "wrong-type", nil
	})
	require.NoError(t, err)

	result, err := WithCache(ctx, memo, "op", nil, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	assert.ErrorIs(t, err, ErrInvalidResultType)
	assert.Zero(t, result)
}

func TestWithCache_NilInterfaceResult(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()

	type Describer interface{ Describe() string }

	for i := 0; i < 2; i++ {
		result, err := WithCache(ctx, memo, "op", nil, func(ctx context.Context) (Describer, error) {
			return nil, nil
		})
		require.NoError(t, err)
		assert.Nil(t, result)
	}
	assert.Equal(t, uint64(1), memo.Stats().Hits)
}

func TestWithCache_ProducerReceivesContext(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "request-1")

	got, err := WithCache(ctx, memo, "op", nil, func(ctx context.Context) (string, error) {
		return ctx.Value(ctxKey{}).(string), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "request-1", got)
}

func TestWithCache_ConcurrentMissesRunProducerEach(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute)
	ctx := context.Background()

	var calls atomic.Int32
	var started sync.WaitGroup
	release := make(chan struct{})
	started.Add(2)

	producer := func(ctx context.Context) (int32, error) {
		n := calls.Add(1)
		started.Done()
		<-release
		return n, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := WithCache(ctx, memo, "op", nil, producer)
			assert.NoError(t, err)
		}()
	}

	started.Wait()
	close(release)
	wg.Wait()

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, memo.Store().Len(), "both misses share one cache slot")
}

func TestWithCache_Deduplication(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute, WithDeduplication(true))
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})

	producer := func(ctx context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"shared"}, nil
	}

	results := make([][]string, 5)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = WithCache(ctx, memo, "op", nil, producer)
		}(i)
	}

	// Every caller has missed the store while the first producer is still
	// blocked, so none of them can be served by a stored entry.
	require.Eventually(t, func() bool {
		return memo.Stats().Misses == uint64(len(results))
	}, time.Second, time.Millisecond)
	require.Never(t, func() bool {
		return calls.Load() > 1
	}, 50*time.Millisecond, time.Millisecond)

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i, r := range results {
		assert.Equal(t, []string{"shared"}, r, "result %d", i)
	}
}

func TestWithCache_DeduplicationPropagatesErrors(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute, WithDeduplication(true))
	errBoom := errors.New("boom")

	_, err := WithCache(context.Background(), memo, "op", nil, func(ctx context.Context) (string, error) {
		return "", errBoom
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 0, memo.Store().Len())
}

func TestWithCache_Logging(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	memo, _ := newTestMemoizer(t, time.Minute, WithLogger(logger))
	ctx := context.Background()
	producer := func(ctx context.Context) (string, error) { return "v", nil }

	_, err := WithCache(ctx, memo, "getLatestFilms", nil, producer)
	require.NoError(t, err)
	_, err = WithCache(ctx, memo, "getLatestFilms", nil, producer)
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "cache miss", entries[0].Message)
	assert.Equal(t, "cache hit", entries[1].Message)
	assert.Equal(t, "getLatestFilms", entries[1].Data["operation"])
	assert.Equal(t, "getLatestFilms:{}", entries[1].Data["key"])
}

type upperKeyBuilder struct{}

func (upperKeyBuilder) BuildKey(operation string, params Params) (string, error) {
	return "custom/" + operation, nil
}

func TestWithKeyBuilder(t *testing.T) {
	memo, _ := newTestMemoizer(t, time.Minute, WithKeyBuilder(upperKeyBuilder{}), WithKeyBuilder(nil))

	key, err := memo.Key("op", Params{"ignored": true})
	require.NoError(t, err)
	assert.Equal(t, "custom/op", key)
}

func TestStats_HitRateWithoutLookups(t *testing.T) {
	assert.Zero(t, Stats{}.HitRate())
}
