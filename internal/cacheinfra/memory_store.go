package cacheinfra

import (
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type memoryEntry struct {
	value      any
	insertedAt time.Time
}

// MemoryStore keeps entries in a concurrent map and checks expiry lazily on read.
// There is no background sweep; a stale entry stays in the map until it is read,
// overwritten or invalidated.
type MemoryStore struct {
	entries *xsync.MapOf[string, *memoryEntry]
	ttl     time.Duration
	clock   Clock
}

// NewMemoryStore creates a store whose entries live for ttl.
// A nil clock falls back to SystemClock.
func NewMemoryStore(ttl time.Duration, clock Clock) (*MemoryStore, error) {
	if ttl <= 0 {
		return nil, &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &MemoryStore{
		entries: xsync.NewMapOf[string, *memoryEntry](),
		ttl:     ttl,
		clock:   clock,
	}, nil
}

// Get returns the value stored under key if it is still fresh.
// A stale entry is removed as a side effect of the read.
func (s *MemoryStore) Get(key string) (any, bool) {
	e, ok := s.entries.Load(key)
	if !ok {
		return nil, false
	}

	if s.clock.Now().Sub(e.insertedAt) < s.ttl {
		return e.value, true
	}

	// Only drop the entry we judged stale; a concurrent Set may have replaced it.
	s.entries.Compute(key, func(current *memoryEntry, loaded bool) (*memoryEntry, bool) {
		return current, !loaded || current == e
	})

	return nil, false
}

// Set stores value under key stamped with the current time.
func (s *MemoryStore) Set(key string, value any) {
	s.entries.Store(key, &memoryEntry{value: value, insertedAt: s.clock.Now()})
}

// Invalidate removes key. Missing keys are ignored.
func (s *MemoryStore) Invalidate(key string) {
	s.entries.Delete(key)
}

// InvalidatePattern removes every entry whose key contains substring and
// returns how many were removed. An empty substring matches every key.
func (s *MemoryStore) InvalidatePattern(substring string) int {
	var matched []string
	s.entries.Range(func(key string, _ *memoryEntry) bool {
		if strings.Contains(key, substring) {
			matched = append(matched, key)
		}
		return true
	})

	removed := 0
	for _, key := range matched {
		if _, ok := s.entries.LoadAndDelete(key); ok {
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (s *MemoryStore) Clear() {
	s.entries.Clear()
}

// Len reports the number of physically stored entries, stale ones included.
func (s *MemoryStore) Len() int {
	return s.entries.Size()
}

// TTL returns the configured time-to-live.
func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}
