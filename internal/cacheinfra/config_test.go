package cacheinfra

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Backend != BackendMemory {
		t.Errorf("expected Backend to be %q, got %q", BackendMemory, cfg.Backend)
	}

	if cfg.TTL != 5*time.Minute {
		t.Errorf("expected TTL to be 5 minutes, got %v", cfg.TTL)
	}

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	sturdycConfig := func(mutate func(*Config)) Config {
		cfg := Config{
			Backend:            BackendSturdyc,
			TTL:                time.Minute,
			Capacity:           1000,
			NumShards:          16,
			EvictionPercentage: 10,
		}
		mutate(&cfg)
		return cfg
	}

	tests := []struct {
		name      string
		cfg       Config
		wantField string
		errorMsg  string
	}{
		{
			name: "valid default config",
			cfg:  DefaultConfig(),
		},
		{
			name: "memory backend ignores sturdyc sizing",
			cfg:  Config{Backend: BackendMemory, TTL: time.Second},
		},
		{
			name:      "invalid TTL - zero",
			cfg:       Config{Backend: BackendMemory},
			wantField: "TTL",
			errorMsg:  "must be greater than 0",
		},
		{
			name:      "invalid TTL - negative",
			cfg:       sturdycConfig(func(c *Config) { c.TTL = -time.Second }),
			wantField: "TTL",
			errorMsg:  "must be greater than 0",
		},
		{
			name:      "unknown backend",
			cfg:       Config{Backend: "redis", TTL: time.Second},
			wantField: "Backend",
			errorMsg:  "must be one of memory, sturdyc",
		},
		{
			name:      "empty backend",
			cfg:       Config{TTL: time.Second},
			wantField: "Backend",
			errorMsg:  "must be one of",
		},
		{
			name: "valid sturdyc config",
			cfg:  sturdycConfig(func(c *Config) {}),
		},
		{
			name:      "invalid capacity - zero",
			cfg:       sturdycConfig(func(c *Config) { c.Capacity = 0 }),
			wantField: "Capacity",
			errorMsg:  "must be greater than 0",
		},
		{
			name:      "invalid num shards - zero",
			cfg:       sturdycConfig(func(c *Config) { c.NumShards = 0 }),
			wantField: "NumShards",
			errorMsg:  "must be greater than 0",
		},
		{
			name:      "capacity smaller than shards",
			cfg:       sturdycConfig(func(c *Config) { c.Capacity = 8 }),
			wantField: "Capacity",
			errorMsg:  "greater than or equal to NumShards",
		},
		{
			name:      "invalid eviction percentage - too low",
			cfg:       sturdycConfig(func(c *Config) { c.EvictionPercentage = 0 }),
			wantField: "EvictionPercentage",
			errorMsg:  "must be between 1 and 100",
		},
		{
			name:      "invalid eviction percentage - too high",
			cfg:       sturdycConfig(func(c *Config) { c.EvictionPercentage = 101 }),
			wantField: "EvictionPercentage",
			errorMsg:  "must be between 1 and 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected no validation error but got: %v", err)
				}
				return
			}

			var configErr *ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("expected ConfigError but got: %v", err)
			}
			if configErr.Field != tt.wantField {
				t.Errorf("expected error field %q, got %q", tt.wantField, configErr.Field)
			}
			if !strings.Contains(configErr.Message, tt.errorMsg) {
				t.Errorf("expected error message to contain %q, got %q", tt.errorMsg, configErr.Message)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{
		Field:   "TestField",
		Message: "test message",
	}

	expected := "config error in field TestField: test message"
	if err.Error() != expected {
		t.Errorf("expected error message %q, got %q", expected, err.Error())
	}
}
