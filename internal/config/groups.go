package config

import (
	"path/filepath"
	"time"
)

// PackageConfig describes the application package itself.
type PackageConfig struct {
	Name    string `validate:"required"`
	Version string `validate:"required"`
	Dir     string
}

// ProjectConfig holds project locations and site identity.
type ProjectConfig struct {
	BaseDir      string `validate:"required"`
	CLIDir       string `validate:"required"`
	SiteName     string
	LanguageCode string `validate:"required"`
	TimeZone     string `validate:"required"`
}

// SecurityConfig holds secrets and deployment hardening switches.
type SecurityConfig struct {
	SecretKey        string `validate:"required"`
	Debug            bool
	AllowedHosts     []string `validate:"dive,required"`
	LoginRedirectURL string
}

// DatabaseConfig selects and configures the database backend. Backend is a
// selector resolved by the settings materializer.
type DatabaseConfig struct {
	Backend  string `validate:"required"`
	SQLite3  string
	Pool     bool
	SSLMode  string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	UseVars  bool
	Service  string
	User     string
	Password string
	Name     string
	Host     string
	Port     int `validate:"gt=0,lt=65536"`
}

// StorageConfig selects the default file storage backend and static roots.
type StorageConfig struct {
	Backend    string `validate:"required"`
	StaticRoot string `validate:"required"`
	MediaRoot  string `validate:"required"`
	Token      string
}

// TailwindConfig locates the Tailwind CSS CLI and its input and output files.
type TailwindConfig struct {
	Version string
	CLI     string `validate:"required"`
	Source  string `validate:"required"`
	Output  string `validate:"required"`
}

// CommandsConfig lists the shell commands of the install and build tasks.
type CommandsConfig struct {
	Install []string
	Build   []string
}

// ServerConfig configures the development HTTP server.
type ServerConfig struct {
	Addr                string        `validate:"required"`
	ReadHeaderTimeout   time.Duration `validate:"gte=0"`
	WriteTimeout        time.Duration `validate:"gte=0"`
	IdleTimeout         time.Duration `validate:"gte=0"`
	ShutdownGracePeriod time.Duration `validate:"gte=0"`
	RateLimitRPS        float64       `validate:"gte=0"`
	RateLimitBurst      int           `validate:"gte=0"`
	RequestLogging      bool
}

// GenerateConfig holds the output paths of generated scaffold files.
type GenerateConfig struct {
	DotenvExample string `validate:"required"`
	VercelJSON    string `validate:"required"`
	APIEntrypoint string `validate:"required"`
}

func bindPackage(b *binder) PackageConfig {
	return PackageConfig{
		Name:    b.String(PackageName),
		Version: b.String(PackageVersion),
		Dir:     b.String(PackageDir),
	}
}

func bindProject(b *binder) ProjectConfig {
	return ProjectConfig{
		BaseDir:      b.String(ProjectBaseDir),
		CLIDir:       b.String(ProjectCLIDir),
		SiteName:     b.String(ProjectSiteName),
		LanguageCode: b.String(ProjectLanguageCode),
		TimeZone:     b.String(ProjectTimeZone),
	}
}

func bindSecurity(b *binder) SecurityConfig {
	return SecurityConfig{
		SecretKey:        b.String(SecuritySecretKey),
		Debug:            b.Bool(SecurityDebug),
		AllowedHosts:     b.List(SecurityAllowedHosts),
		LoginRedirectURL: b.String(SecurityLoginRedirectURL),
	}
}

func bindDatabase(b *binder) DatabaseConfig {
	return DatabaseConfig{
		Backend:  b.String(DatabaseBackend),
		SQLite3:  b.String(DatabaseSQLite3),
		Pool:     b.Bool(DatabasePool),
		SSLMode:  b.String(DatabaseSSLMode),
		UseVars:  b.Bool(DatabaseUseVars),
		Service:  b.String(DatabaseService),
		User:     b.String(DatabaseUser),
		Password: b.String(DatabasePassword),
		Name:     b.String(DatabaseName),
		Host:     b.String(DatabaseHost),
		Port:     b.Int(DatabasePort),
	}
}

func bindStorage(b *binder) StorageConfig {
	return StorageConfig{
		Backend:    b.String(StorageBackend),
		StaticRoot: b.String(StorageStaticRoot),
		MediaRoot:  b.String(StorageMediaRoot),
		Token:      b.String(StorageToken),
	}
}

func bindTailwind(b *binder, cliDir string) TailwindConfig {
	cfg := TailwindConfig{
		Version: b.String(TailwindVersion),
		CLI:     b.String(TailwindCLI),
		Source:  b.String(TailwindSource),
		Output:  b.String(TailwindOutput),
	}
	if cfg.CLI == "" && cliDir != "" {
		cfg.CLI = filepath.Join(cliDir, "tailwindcss")
	}
	return cfg
}

func bindCommands(b *binder) CommandsConfig {
	return CommandsConfig{
		Install: b.List(CommandsInstall),
		Build:   b.List(CommandsBuild),
	}
}

func bindServer(b *binder) ServerConfig {
	return ServerConfig{
		Addr:                b.String(ServerAddr),
		ReadHeaderTimeout:   b.Duration(ServerReadHeaderTimeout),
		WriteTimeout:        b.Duration(ServerWriteTimeout),
		IdleTimeout:         b.Duration(ServerIdleTimeout),
		ShutdownGracePeriod: b.Duration(ServerShutdownGracePeriod),
		RateLimitRPS:        b.Float(ServerRateLimitRPS),
		RateLimitBurst:      b.Int(ServerRateLimitBurst),
		RequestLogging:      b.Bool(ServerRequestLogging),
	}
}

func bindGenerate(b *binder) GenerateConfig {
	return GenerateConfig{
		DotenvExample: b.String(GenerateDotenvExample),
		VercelJSON:    b.String(GenerateVercelJSON),
		APIEntrypoint: b.String(GenerateAPIEntrypoint),
	}
}
