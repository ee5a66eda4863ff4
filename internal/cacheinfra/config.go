package cacheinfra

import (
	"strings"
	"time"
)

// Backend names a store implementation.
type Backend string

const (
	// BackendMemory is the unbounded map store with lazy TTL expiry.
	BackendMemory Backend = "memory"
	// BackendSturdyc is the capacity bounded sharded store backed by sturdyc.
	BackendSturdyc Backend = "sturdyc"
)

// Backends lists every supported backend name.
var Backends = []Backend{BackendMemory, BackendSturdyc}

// Config holds the configuration shared by the store backends.
type Config struct {
	// Backend selects the store implementation. Default: memory
	Backend Backend

	// TTL is the time-to-live for cached entries.
	// After this duration, entries are considered expired.
	// Must be greater than 0.
	TTL time.Duration

	// Capacity defines the maximum number of entries the sturdyc backend can store.
	// Ignored by the memory backend.
	Capacity int

	// NumShards determines the number of sturdyc shards.
	// Ignored by the memory backend. Default: 256
	NumShards int

	// EvictionPercentage specifies what percentage of entries sturdyc evicts
	// when a shard reaches its capacity. Must be between 1-100.
	// Default: 10
	EvictionPercentage int
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Backend:            BackendMemory,
		TTL:                5 * time.Minute,
		Capacity:           10000,
		NumShards:          256,
		EvictionPercentage: 10,
	}
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	switch c.Backend {
	case BackendMemory:
		return nil
	case BackendSturdyc:
	default:
		return &ConfigError{Field: "Backend", Message: "must be one of " + backendList()}
	}

	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	// sturdyc splits capacity evenly across shards
	if c.Capacity < c.NumShards {
		return &ConfigError{Field: "Capacity", Message: "must be greater than or equal to NumShards"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	return nil
}

func backendList() string {
	names := make([]string, len(Backends))
	for i, b := range Backends {
		names[i] = string(b)
	}
	return strings.Join(names, ", ")
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}
