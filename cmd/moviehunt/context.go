package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/moviehunt/querycache/catalog"
	"github.com/moviehunt/querycache/internal/config"
	"github.com/moviehunt/querycache/internal/database"
	"github.com/moviehunt/querycache/pkg/di"
)

type rootOptions struct {
	configPath string
	seedPath   string
	logLevel   string
	repeat     int
	stats      bool
	json       bool
}

type commandContext struct {
	opts *rootOptions

	configOnce sync.Once
	config     config.Config
	logger     *logrus.Logger
	configErr  error

	serviceOnce sync.Once
	db          *bun.DB
	container   *di.Container
	service     *catalog.Service
	serviceErr  error
}

func newCommandContext(opts *rootOptions) *commandContext {
	return &commandContext{opts: opts}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.opts.configPath))
		if err != nil {
			c.configErr = err
			return
		}
		if c.opts.seedPath != "" {
			cfg.Database.Seed = c.opts.seedPath
		}
		if c.opts.logLevel != "" {
			cfg.Log.Level = c.opts.logLevel
			if err := cfg.Log.Validate(); err != nil {
				c.configErr = fmt.Errorf("--log-level: %w", err)
				return
			}
		}
		c.config = cfg
		c.logger = cfg.Log.NewLogger()
	})
	return c.config, c.configErr
}

// ensureService opens the database, prepares the schema and builds the cached catalog.
func (c *commandContext) ensureService(ctx context.Context) (*catalog.Service, error) {
	c.serviceOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.serviceErr = err
			return
		}

		db, err := database.Open(cfg.Database, c.logger)
		if err != nil {
			c.serviceErr = err
			return
		}
		c.db = db

		if err := catalog.CreateSchema(ctx, db); err != nil {
			c.serviceErr = err
			return
		}
		if cfg.Database.Seed != "" {
			if err := seedIfEmpty(ctx, db, cfg.Database.Seed, c.logger); err != nil {
				c.serviceErr = err
				return
			}
		}

		container, err := di.NewContainer(cfg.Cache.Cache(), di.WithLogger(c.logger))
		if err != nil {
			c.serviceErr = err
			return
		}
		c.container = container
		c.service = container.NewCatalog(catalog.NewBunSource(db))
	})
	return c.service, c.serviceErr
}

func (c *commandContext) close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func seedIfEmpty(ctx context.Context, db bun.IDB, path string, logger logrus.FieldLogger) error {
	existing, err := db.NewSelect().Model((*catalog.Film)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count films: %w", err)
	}
	if existing > 0 {
		logger.WithField("films", existing).Debug("database already populated, skipping seed")
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seeds []catalog.SeedFilm
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := catalog.Seed(ctx, db, seeds); err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"path":  path,
		"films": len(seeds),
	}).Info("catalog seeded")
	return nil
}
