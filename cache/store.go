package cache

import "context"

// Store holds cached results and answers freshness-aware lookups.
// Implementations decide freshness against their configured TTL; a stale
// entry is reported as absent even if it is still physically held.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Invalidate(key string)
	// InvalidatePattern removes every entry whose key contains substring
	// and reports how many were removed.
	InvalidatePattern(substring string) int
	Clear()
	// Len reports physically held entries, stale ones included.
	Len() int
}

// Producer performs the expensive read whose result is memoized.
type Producer[T any] func(ctx context.Context) (T, error)
