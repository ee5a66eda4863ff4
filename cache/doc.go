// Package cache memoizes asynchronous reads behind a time-to-live store.
//
// # Overview
//
// The package is built from three pieces:
//
//   - Store: key/value entries stamped with their insertion time; an entry is
//     fresh while now - insertedAt < TTL and is checked lazily on read
//   - KeyBuilder: turns an operation name and its parameters into a canonical key
//   - Memoizer: returns fresh cached results or runs a caller supplied Producer
//
// # Basic Usage
//
//	memo, err := cache.NewMemoizerFromConfig(cache.DefaultConfig())
//	if err != nil {
//		return err
//	}
//
//	films, err := cache.WithCache(ctx, memo, "getTopRatedFilms",
//		cache.Params{"limit": 10, "minRating": 6},
//		func(ctx context.Context) ([]Film, error) {
//			return source.TopRatedFilms(ctx, 10, 6)
//		})
//
// A second call with the same operation and parameters, in any key order,
// returns the cached slice without running the producer.
//
// # Keys
//
// The default KeyBuilder sorts parameter names and renders the ordered
// mapping as JSON:
//
//	getTopRatedFilms:{"limit":10,"minRating":6}
//
// Because keys start with the operation name, InvalidatePattern("getTopRatedFilms")
// drops every cached variant of that operation. ParamsFrom derives Params from a
// tagged struct for callers that prefer typed parameter objects.
//
// # Failures
//
// Producer errors reach the caller unchanged. They are not cached and not
// retried, so the next call runs the producer again. Parameters that cannot
// be encoded fail with *KeySerializationError before any producer runs.
//
// # Concurrency
//
// Stores are safe for concurrent use. By default two concurrent misses for
// the same key both run their producer and the last result stored wins.
// WithDeduplication(true) collapses them into one call through singleflight.
//
// # Backends
//
// The memory backend never sweeps in the background; stale entries occupy
// memory until they are read, overwritten or invalidated. The sturdyc backend
// caps the number of entries and evicts a percentage of a shard when it fills.
package cache
