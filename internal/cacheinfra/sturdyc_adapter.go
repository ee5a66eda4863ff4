package cacheinfra

import (
	"strings"
	"sync"
	"time"

	"github.com/viccon/sturdyc"
)

// SturdycStore adapts a sturdyc client to the store contract.
// Unlike MemoryStore it is bounded: once a shard is full sturdyc evicts
// EvictionPercentage of its entries.
type SturdycStore struct {
	mu     sync.RWMutex
	client *sturdyc.Client[any]
	cfg    Config
	clock  Clock
}

// NewSturdycStore creates a new sturdyc backed store. A nil clock uses SystemClock.
//
// Capacity, NumShards, TTL and EvictionPercentage are passed to sturdyc.New().
// Continuous evictions are disabled so expiry stays lazy: sturdyc compares
// the entry expiry against the clock when the key is read.
//
// Version compatibility note: This implementation assumes sturdyc v1.x API.
func NewSturdycStore(cfg Config, clock Clock) (*SturdycStore, error) {
	cfg.Backend = BackendSturdyc
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = SystemClock{}
	}

	s := &SturdycStore{cfg: cfg, clock: clock}
	s.client = s.newClient()
	return s, nil
}

// newClient builds a client whose entries are fresh while now - insertedAt < TTL.
// sturdyc keeps an entry until now is strictly after its expiry, so the TTL it
// sees is one nanosecond shorter.
func (s *SturdycStore) newClient() *sturdyc.Client[any] {
	ttl := s.cfg.TTL
	if ttl > time.Nanosecond {
		ttl -= time.Nanosecond
	}

	return sturdyc.New[any](
		s.cfg.Capacity,
		s.cfg.NumShards,
		ttl,
		s.cfg.EvictionPercentage,
		sturdyc.WithNoContinuousEvictions(),
		sturdyc.WithEvictionInterval(ttl),
		sturdyc.WithClock(sturdycClock{s.clock}),
	)
}

func (s *SturdycStore) current() *sturdyc.Client[any] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Get returns the value stored under key unless it is missing or expired.
func (s *SturdycStore) Get(key string) (any, bool) {
	return s.current().Get(key)
}

// Set stores value under key, stamped with the store clock.
func (s *SturdycStore) Set(key string, value any) {
	s.current().Set(key, value)
}

// Invalidate removes a single entry.
func (s *SturdycStore) Invalidate(key string) {
	s.current().Delete(key)
}

// InvalidatePattern removes all fresh entries whose key contains substring.
// sturdyc does not list expired keys; they already read as misses.
func (s *SturdycStore) InvalidatePattern(substring string) int {
	client := s.current()
	removed := 0
	for _, key := range client.ScanKeys() {
		if strings.Contains(key, substring) {
			client.Delete(key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry, expired ones included, by replacing the client.
func (s *SturdycStore) Clear() {
	client := s.newClient()

	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
}

// Len reports how many entries sturdyc physically holds, stale ones included.
func (s *SturdycStore) Len() int {
	return s.current().Size()
}

// TTL returns the configured time-to-live.
func (s *SturdycStore) TTL() time.Duration {
	return s.cfg.TTL
}

// sturdycClock lets sturdyc read time from a Clock. Timers stay on the wall
// clock; with continuous evictions off sturdyc does not start any.
type sturdycClock struct {
	Clock
}

func (c sturdycClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func (c sturdycClock) NewTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

func (c sturdycClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}
