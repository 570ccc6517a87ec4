package settings

import (
	"slices"
	"strings"

	"github.com/eugenenazirov/tawala/internal/config"
)

// Database engines, named after the database/sql driver that serves them.
const (
	EngineSQLite   = "sqlite3"
	EnginePostgres = "pgx"
)

// DefaultDatabase is the alias of the primary connection.
const DefaultDatabase = "default"

var (
	sqliteAliases   = []string{"sqlite", "sqlite3"}
	postgresAliases = []string{"postgresql", "postgres", "psql", "pgsql", "pg", "psycopg", "pgx"}
)

// PostgresOptions are the driver options of a postgres connection.
type PostgresOptions struct {
	Pool    bool
	SSLMode string
	// Service names a connection service file entry. It is set only when
	// explicit credentials are not used.
	Service string
}

// DatabaseSettings is one entry of DATABASES.
type DatabaseSettings struct {
	Engine string
	// Name is the sqlite file or the postgres database name.
	Name     string
	User     string
	Password string
	Host     string
	Port     int
	// UseVars reports whether the explicit credential keys are part of the
	// connection (postgres only).
	UseVars bool
	Options *PostgresOptions
}

// Map renders the entry with framework keys. Postgres credentials are present
// exactly when UseVars is set, even if empty.
func (d DatabaseSettings) Map() map[string]any {
	out := map[string]any{"ENGINE": d.Engine}
	switch d.Engine {
	case EngineSQLite:
		out["NAME"] = d.Name
	case EnginePostgres:
		options := map[string]any{}
		if d.Options != nil {
			options["pool"] = d.Options.Pool
			options["sslmode"] = d.Options.SSLMode
			if !d.UseVars {
				options["service"] = d.Options.Service
			}
		}
		out["OPTIONS"] = options
		if d.UseVars {
			out["USER"] = d.User
			out["PASSWORD"] = d.Password
			out["NAME"] = d.Name
			out["HOST"] = d.Host
			out["PORT"] = d.Port
		}
	}
	return out
}

// DatabaseBackends lists the accepted selectors per engine.
func DatabaseBackends() map[string][]string {
	return map[string][]string{
		EngineSQLite:   append([]string(nil), sqliteAliases...),
		EnginePostgres: append([]string(nil), postgresAliases...),
	}
}

func materializeDatabases(cfg config.DatabaseConfig) (map[string]DatabaseSettings, error) {
	backend := normalizeSelector(cfg.Backend)

	switch {
	case slices.Contains(sqliteAliases, backend):
		return map[string]DatabaseSettings{
			DefaultDatabase: {Engine: EngineSQLite, Name: cfg.SQLite3},
		}, nil

	case slices.Contains(postgresAliases, backend):
		db := DatabaseSettings{
			Engine:  EnginePostgres,
			UseVars: cfg.UseVars,
			Options: &PostgresOptions{Pool: cfg.Pool, SSLMode: cfg.SSLMode},
		}
		if cfg.UseVars {
			db.User = cfg.User
			db.Password = cfg.Password
			db.Name = cfg.Name
			db.Host = cfg.Host
			db.Port = cfg.Port
		} else {
			db.Options.Service = cfg.Service
		}
		return map[string]DatabaseSettings{DefaultDatabase: db}, nil

	default:
		return nil, &UnsupportedBackendError{Kind: "database", Backend: backend, Accepted: acceptedSelectors(DatabaseBackends())}
	}
}

func normalizeSelector(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
