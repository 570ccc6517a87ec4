// Package database turns materialized database settings into driver
// connection strings and verifies that the configured database is reachable.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/eugenenazirov/tawala/internal/settings"
)

// ErrUnreachable wraps every connectivity failure reported by Check.
var ErrUnreachable = errors.New("database unreachable")

// DSN returns the data source name for db: a file path for sqlite and a
// keyword/value conninfo string for postgres.
func DSN(db settings.DatabaseSettings) (string, error) {
	switch db.Engine {
	case settings.EngineSQLite:
		if db.Name == "" {
			return "", errors.New("sqlite database: empty name")
		}
		return db.Name, nil
	case settings.EnginePostgres:
		return postgresDSN(db), nil
	default:
		return "", &settings.UnsupportedBackendError{Kind: "database", Backend: db.Engine}
	}
}

func postgresDSN(db settings.DatabaseSettings) string {
	params := map[string]string{}
	if db.Options != nil {
		params["sslmode"] = db.Options.SSLMode
		if !db.UseVars {
			params["service"] = db.Options.Service
		}
	}
	if db.UseVars {
		params["host"] = db.Host
		params["user"] = db.User
		params["password"] = db.Password
		params["dbname"] = db.Name
		if db.Port > 0 {
			params["port"] = strconv.Itoa(db.Port)
		}
	}

	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quoteConninfo(params[k]))
	}
	return strings.Join(parts, " ")
}

// quoteConninfo quotes a conninfo value when it holds spaces, quotes or
// backslashes.
func quoteConninfo(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Redact returns the DSN of db with the password masked.
func Redact(db settings.DatabaseSettings) string {
	if db.Password != "" {
		db.Password = "********"
	}
	dsn, err := DSN(db)
	if err != nil {
		return ""
	}
	return dsn
}

// Check verifies the database of db can be used: for sqlite the parent
// directory must exist, for postgres a ping must succeed.
func Check(ctx context.Context, db settings.DatabaseSettings, logger *zap.Logger) error {
	dsn, err := DSN(db)
	if err != nil {
		return err
	}

	switch db.Engine {
	case settings.EngineSQLite:
		dir := filepath.Dir(dsn)
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("%w: sqlite directory %s: %v", ErrUnreachable, dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrUnreachable, dir)
		}
		logger.Debug("sqlite database location available", zap.String("path", dsn))
		return nil

	default:
		if db.Options != nil && db.Options.Pool {
			return checkPool(ctx, dsn, Redact(db), logger)
		}
		return checkConn(ctx, dsn, Redact(db), logger)
	}
}

func checkPool(ctx context.Context, dsn, redacted string, logger *zap.Logger) error {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	logger.Info("postgres pool reachable",
		zap.String("dsn", redacted),
		zap.Int32("max_conns", cfg.MaxConns),
	)
	return nil
}

func checkConn(ctx context.Context, dsn, redacted string, logger *zap.Logger) error {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres config: %w", err)
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	logger.Info("postgres reachable", zap.String("dsn", redacted))
	return nil
}
