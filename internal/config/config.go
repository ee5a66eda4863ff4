package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/moviehunt/querycache/cache"
)

const (
	// FileName is the config file searched for when no path is given.
	FileName  = "moviehunt"
	EnvPrefix = "MOVIEHUNT"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	// Seed is an optional JSON file of films loaded at startup.
	Seed string `mapstructure:"seed"`
}

type CacheConfig struct {
	Backend            string        `mapstructure:"backend"`
	TTL                time.Duration `mapstructure:"ttl"`
	Capacity           int           `mapstructure:"capacity"`
	Shards             int           `mapstructure:"shards"`
	EvictionPercentage int           `mapstructure:"eviction_percentage"`
	Deduplicate        bool          `mapstructure:"deduplicate"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Default returns a configuration that runs against an in-memory SQLite database.
func Default() Config {
	c := cache.DefaultConfig()
	return Config{
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			DSN:    "file::memory:?cache=shared",
		},
		Cache: CacheConfig{
			Backend:            string(c.Backend),
			TTL:                c.TTL,
			Capacity:           c.Capacity,
			Shards:             c.NumShards,
			EvictionPercentage: c.EvictionPercentage,
			Deduplicate:        c.Deduplicate,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path, or moviehunt.yaml from the working directory and
// $HOME/.config/moviehunt when path is empty. A missing default file is not
// an error. MOVIEHUNT_* environment variables override file values, e.g.
// MOVIEHUNT_CACHE_TTL=30s.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/moviehunt")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.seed", d.Database.Seed)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.shards", d.Cache.Shards)
	v.SetDefault("cache.eviction_percentage", d.Cache.EvictionPercentage)
	v.SetDefault("cache.deduplicate", d.Cache.Deduplicate)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func (c Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Cache.Cache().Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(DriverPostgres, DriverSQLite)),
		validation.Field(&d.DSN, validation.Required),
	)
}

func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.Required, validation.By(func(value any) error {
			_, err := logrus.ParseLevel(value.(string))
			return err
		})),
		validation.Field(&l.Format, validation.Required, validation.In("text", "json")),
	)
}

// Cache converts the section into the cache package configuration.
func (c CacheConfig) Cache() cache.Config {
	return cache.Config{
		Backend:            cache.Backend(c.Backend),
		TTL:                c.TTL,
		Capacity:           c.Capacity,
		NumShards:          c.Shards,
		EvictionPercentage: c.EvictionPercentage,
		Deduplicate:        c.Deduplicate,
	}
}

// NewLogger builds a logrus logger from the section. Call Validate first.
func (l LogConfig) NewLogger() *logrus.Logger {
	logger := logrus.New()
	if level, err := logrus.ParseLevel(l.Level); err == nil {
		logger.SetLevel(level)
	}
	if l.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
