// Package database opens the bun handle selected by configuration.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/moviehunt/querycache/internal/config"
)

// Open returns a bun.DB for cfg.Driver. It does not ping the server.
func Open(cfg config.DatabaseConfig, logger logrus.FieldLogger) (*bun.DB, error) {
	sqldb, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Driver, err)
	}

	var db *bun.DB
	switch cfg.Driver {
	case config.DriverPostgres:
		db = bun.NewDB(sqldb, pgdialect.New())
	case config.DriverSQLite:
		// An in-memory database lives only as long as its connection.
		if strings.Contains(cfg.DSN, ":memory:") || strings.Contains(cfg.DSN, "mode=memory") {
			sqldb.SetMaxOpenConns(1)
			sqldb.SetConnMaxLifetime(0)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		sqldb.Close()
		return nil, fmt.Errorf("database: unsupported driver %q", cfg.Driver)
	}

	if logger != nil {
		logger.WithField("driver", cfg.Driver).Debug("database handle opened")
	}
	return db, nil
}
