package config

import (
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/eugenenazirov/tawala/internal/helpers"
)

// Package metadata.
var (
	PackageName    = Field{Key: "package.name", Env: "PKG_NAME", Kind: KindString, Default: "tawala"}
	PackageVersion = Field{Key: "package.version", Env: "PKG_VERSION", Kind: KindString, Default: buildVersion()}
	PackageDir     = Field{Key: "package.dir", Env: "PKG_DIR", Kind: KindPath, Default: executableDir()}
)

// Project paths and site identity.
var (
	ProjectBaseDir      = Field{Key: "project.base_dir", Env: "BASE_DIR", Kind: KindPath, Default: "."}
	ProjectCLIDir       = Field{Key: "project.cli_dir", Env: "CLI_DIR", Kind: KindPath, Default: ".tawala"}
	ProjectSiteName     = Field{Key: "project.site_name", Env: "SITE_NAME", Kind: KindString, Default: ""}
	ProjectLanguageCode = Field{Key: "project.language_code", Env: "LANGUAGE_CODE", Kind: KindString, Default: "en-us"}
	ProjectTimeZone     = Field{Key: "project.time_zone", Env: "TIME_ZONE", Kind: KindString, Default: "Africa/Nairobi"}
)

// Security and deployment.
var (
	SecuritySecretKey        = Field{Key: "security.secret_key", Env: "SECRET_KEY", Kind: KindString, Default: "tawala-insecure-change-me", Secret: true}
	SecurityDebug            = Field{Key: "security.debug", Env: "DEBUG", Kind: KindBool, Default: true}
	SecurityAllowedHosts     = Field{Key: "security.allowed_hosts", Env: "ALLOWED_HOSTS", Kind: KindList, Default: []string{"localhost", "127.0.0.1"}}
	SecurityLoginRedirectURL = Field{Key: "security.login_redirect_url", Env: "LOGIN_REDIRECT_URL", Kind: KindString, Default: ""}
)

// Database selection and connection.
var (
	DatabaseBackend  = Field{Key: "database.backend", Env: "DB_BACKEND", Kind: KindString, Default: "sqlite"}
	DatabaseSQLite3  = Field{Key: "database.sqlite3", Env: "DB_SQLITE3", Kind: KindPath, Default: "db.sqlite3"}
	DatabasePool     = Field{Key: "database.pool", Env: "DB_POOL", Kind: KindBool, Default: false}
	DatabaseSSLMode  = Field{Key: "database.ssl_mode", Env: "DB_SSL_MODE", Kind: KindString, Default: "prefer"}
	DatabaseUseVars  = Field{Key: "database.use_vars", Env: "DB_USE_VARS", Kind: KindBool, Default: false}
	DatabaseService  = Field{Key: "database.service", Env: "DB_SERVICE", Kind: KindString, Default: "tawala"}
	DatabaseUser     = Field{Key: "database.user", Env: "DB_USER", Kind: KindString, Default: ""}
	DatabasePassword = Field{Key: "database.password", Env: "DB_PASSWORD", Kind: KindString, Default: "", Secret: true}
	DatabaseName     = Field{Key: "database.name", Env: "DB_NAME", Kind: KindString, Default: ""}
	DatabaseHost     = Field{Key: "database.host", Env: "DB_HOST", Kind: KindString, Default: "localhost"}
	DatabasePort     = Field{Key: "database.port", Env: "DB_PORT", Kind: KindInt, Default: 5432}
)

// Static, media and blob storage.
var (
	StorageBackend    = Field{Key: "storage.backend", Env: "STORAGE_BACKEND", Kind: KindString, Default: "filesystem"}
	StorageStaticRoot = Field{Key: "storage.static_root", Env: "STATIC_ROOT", Kind: KindPath, Default: "staticfiles"}
	StorageMediaRoot  = Field{Key: "storage.media_root", Env: "MEDIA_ROOT", Kind: KindPath, Default: "media"}
	StorageToken      = Field{Key: "storage.token", Env: "BLOB_READ_WRITE_TOKEN", Kind: KindString, Default: "", Secret: true}
)

// Tailwind CSS build tooling. An empty cli resolves to <cli_dir>/tailwindcss.
var (
	TailwindVersion = Field{Key: "tailwindcss.version", Env: "TAILWINDCSS_VERSION", Kind: KindString, Default: "v4.1.13"}
	TailwindCLI     = Field{Key: "tailwindcss.cli", Env: "TAILWINDCSS_CLI", Kind: KindPath, Default: ""}
	TailwindSource  = Field{Key: "tailwindcss.source", Env: "TAILWINDCSS_SOURCE", Kind: KindPath, Default: filepath.Join("assets", "css", "input.css")}
	TailwindOutput  = Field{Key: "tailwindcss.output", Env: "TAILWINDCSS_OUTPUT", Kind: KindPath, Default: filepath.Join("static", "ui", "css", "tailwind.css")}
)

// Commands run by the install and build management tasks.
var (
	CommandsInstall = Field{Key: "commands.install", Env: "COMMANDS_INSTALL", Kind: KindList, Default: []string{}}
	CommandsBuild   = Field{Key: "commands.build", Env: "COMMANDS_BUILD", Kind: KindList, Default: []string{}}
)

// Development server.
var (
	ServerAddr                = Field{Key: "server.addr", Env: "SERVER_ADDR", Kind: KindString, Default: ":8000"}
	ServerReadHeaderTimeout   = Field{Key: "server.read_header_timeout", Env: "SERVER_READ_HEADER_TIMEOUT", Kind: KindDuration, Default: 5 * time.Second}
	ServerWriteTimeout        = Field{Key: "server.write_timeout", Env: "SERVER_WRITE_TIMEOUT", Kind: KindDuration, Default: 15 * time.Second}
	ServerIdleTimeout         = Field{Key: "server.idle_timeout", Env: "SERVER_IDLE_TIMEOUT", Kind: KindDuration, Default: 60 * time.Second}
	ServerShutdownGracePeriod = Field{Key: "server.shutdown_grace_period", Env: "SERVER_SHUTDOWN_GRACE_PERIOD", Kind: KindDuration, Default: 10 * time.Second}
	ServerRateLimitRPS        = Field{Key: "server.rate_limit_rps", Env: "RATE_LIMIT_RPS", Kind: KindFloat, Default: 25.0}
	ServerRateLimitBurst      = Field{Key: "server.rate_limit_burst", Env: "RATE_LIMIT_BURST", Kind: KindInt, Default: 50}
	ServerRequestLogging      = Field{Key: "server.request_logging", Env: "SERVER_REQUEST_LOGGING", Kind: KindBool, Default: true}
)

// Scaffold output files.
var (
	GenerateDotenvExample = Field{Key: "generate.dotenv_example", Env: "GENERATE_DOTENV_EXAMPLE", Kind: KindPath, Default: ".env.example"}
	GenerateVercelJSON    = Field{Key: "generate.vercel_json", Env: "GENERATE_VERCEL_JSON", Kind: KindPath, Default: "vercel.json"}
	GenerateAPIEntrypoint = Field{Key: "generate.api_entrypoint", Env: "GENERATE_API_ENTRYPOINT", Kind: KindPath, Default: filepath.Join("api", "index.go")}
)

// DefaultFields returns every declared field in group order.
func DefaultFields() []Field {
	return []Field{
		PackageName, PackageVersion, PackageDir,
		ProjectBaseDir, ProjectCLIDir, ProjectSiteName, ProjectLanguageCode, ProjectTimeZone,
		SecuritySecretKey, SecurityDebug, SecurityAllowedHosts, SecurityLoginRedirectURL,
		DatabaseBackend, DatabaseSQLite3, DatabasePool, DatabaseSSLMode, DatabaseUseVars,
		DatabaseService, DatabaseUser, DatabasePassword, DatabaseName, DatabaseHost, DatabasePort,
		StorageBackend, StorageStaticRoot, StorageMediaRoot, StorageToken,
		TailwindVersion, TailwindCLI, TailwindSource, TailwindOutput,
		CommandsInstall, CommandsBuild,
		ServerAddr, ServerReadHeaderTimeout, ServerWriteTimeout, ServerIdleTimeout,
		ServerShutdownGracePeriod, ServerRateLimitRPS, ServerRateLimitBurst, ServerRequestLogging,
		GenerateDotenvExample, GenerateVercelJSON, GenerateAPIEntrypoint,
	}
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return helpers.VersionPlaceholder()
	}
	return strings.TrimPrefix(info.Main.Version, "v")
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}
