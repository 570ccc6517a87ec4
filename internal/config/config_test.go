package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// clearEnv hides any inherited value of a declared env var. Empty values
// count as absent.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, f := range DefaultFields() {
		t.Setenv(f.Env, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func valueOf(t *testing.T, s *Settings, f Field) Value {
	t.Helper()
	for _, v := range s.Values() {
		if v.Field.Key == f.Key {
			return v
		}
	}
	t.Fatalf("no resolution record for %s", f.Key)
	return Value{}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Project.BaseDir != dir {
		t.Fatalf("expected base dir %s, got %s", dir, cfg.Project.BaseDir)
	}
	if cfg.Database.Backend != "sqlite" {
		t.Fatalf("expected default backend sqlite, got %s", cfg.Database.Backend)
	}
	if want := filepath.Join(dir, "db.sqlite3"); cfg.Database.SQLite3 != want {
		t.Fatalf("expected sqlite path %s, got %s", want, cfg.Database.SQLite3)
	}
	if !cfg.Security.Debug {
		t.Fatalf("expected debug to default to true")
	}
	if want := []string{"localhost", "127.0.0.1"}; !slices.Equal(cfg.Security.AllowedHosts, want) {
		t.Fatalf("unexpected allowed hosts: %v", cfg.Security.AllowedHosts)
	}
	if cfg.Server.ShutdownGracePeriod != 10*time.Second {
		t.Fatalf("unexpected shutdown grace period: %s", cfg.Server.ShutdownGracePeriod)
	}
	if want := filepath.Join(dir, ".tawala", "tailwindcss"); cfg.Tailwind.CLI != want {
		t.Fatalf("expected tailwind cli %s, got %s", want, cfg.Tailwind.CLI)
	}
	if cfg.ProjectFile() != "" || cfg.EnvFile() != "" {
		t.Fatalf("expected no project or env file, got %q and %q", cfg.ProjectFile(), cfg.EnvFile())
	}
	if got := valueOf(t, cfg, DatabaseBackend).Source; got != SourceDefault {
		t.Fatalf("expected default source, got %s", got)
	}
}

func TestLoadProjectFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tawala.toml"), `
[project]
site_name = "Example"
base_dir = "site"

[security]
debug = "off"
allowed_hosts = ["example.com", ".example.org"]

[database]
backend = "postgres"
port = 6543
`)

	nested := filepath.Join(dir, "deep", "er")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	cfg, err := Load(Options{WorkDir: nested})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.ProjectFile() != filepath.Join(dir, "tawala.toml") {
		t.Fatalf("expected project file to be found upwards, got %q", cfg.ProjectFile())
	}
	if cfg.Project.SiteName != "Example" {
		t.Fatalf("expected site name from file, got %q", cfg.Project.SiteName)
	}
	if want := filepath.Join(dir, "site"); cfg.Project.BaseDir != want {
		t.Fatalf("expected base dir %s, got %s", want, cfg.Project.BaseDir)
	}
	if want := filepath.Join(dir, "site", "media"); cfg.Storage.MediaRoot != want {
		t.Fatalf("expected media root relative to base dir, got %s", cfg.Storage.MediaRoot)
	}
	if cfg.Security.Debug {
		t.Fatalf("expected debug to be disabled by \"off\"")
	}
	if want := []string{"example.com", ".example.org"}; !slices.Equal(cfg.Security.AllowedHosts, want) {
		t.Fatalf("unexpected allowed hosts: %v", cfg.Security.AllowedHosts)
	}
	if cfg.Database.Port != 6543 {
		t.Fatalf("expected port 6543, got %d", cfg.Database.Port)
	}
	if got := valueOf(t, cfg, DatabaseBackend).Source; got != SourceFile {
		t.Fatalf("expected file source, got %s", got)
	}
}

func TestLoadYAMLProjectFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "storage:\n  backend: vercel\ncommands:\n  build:\n    - npm run build\n")

	cfg, err := Load(Options{WorkDir: t.TempDir(), ProjectFile: path})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.Backend != "vercel" {
		t.Fatalf("expected storage backend from yaml, got %s", cfg.Storage.Backend)
	}
	if want := []string{"npm run build"}; !slices.Equal(cfg.Commands.Build, want) {
		t.Fatalf("unexpected build commands: %v", cfg.Commands.Build)
	}
	if cfg.Project.BaseDir != dir {
		t.Fatalf("expected base dir to follow the project file, got %s", cfg.Project.BaseDir)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tawala.toml"), `
[database]
backend = "postgres"
host = "file-host"
user = "file-user"
name = "file-name"
`)
	writeFile(t, filepath.Join(dir, ".env"), "DB_HOST=dotenv-host\nDB_USER=dotenv-user\n")
	t.Setenv("DB_HOST", "env-host")

	cfg, err := Load(Options{
		WorkDir:   dir,
		Overrides: map[string]string{"database.backend": "PG", "DB_NAME": "override-name"},
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	tests := []struct {
		field  Field
		value  string
		source Source
	}{
		{DatabaseBackend, "PG", SourceOverride},
		{DatabaseName, "override-name", SourceOverride},
		{DatabaseHost, "env-host", SourceEnv},
		{DatabaseUser, "dotenv-user", SourceDotenv},
		{DatabaseService, "tawala", SourceDefault},
	}
	for _, tc := range tests {
		v := valueOf(t, cfg, tc.field)
		if v.Value != tc.value || v.Source != tc.source {
			t.Fatalf("%s: expected %q from %s, got %v from %s", tc.field.Key, tc.value, tc.source, v.Value, v.Source)
		}
	}
	if cfg.EnvFile() != filepath.Join(dir, ".env") {
		t.Fatalf("expected .env next to project file, got %q", cfg.EnvFile())
	}
}

func TestLoadEmptyEnvIsAbsent(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tawala.toml"), "[storage]\nbackend = \"fs\"\n")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := Load(Options{WorkDir: dir})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.Backend != "fs" {
		t.Fatalf("expected empty env var to fall through to file, got %q", cfg.Storage.Backend)
	}
}

func TestLoadCoercionErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("SERVER_WRITE_TIMEOUT", "soon")

	cfg, err := Load(Options{WorkDir: t.TempDir()})
	if err == nil {
		t.Fatalf("expected coercion error")
	}
	if cfg != nil {
		t.Fatalf("expected nil settings on error")
	}
	if !errors.Is(err, ErrCoercion) {
		t.Fatalf("expected ErrCoercion, got %v", err)
	}
	for _, key := range []string{"database.port", "server.write_timeout"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected error to name %s, got %v", key, err)
		}
	}

	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Source != SourceEnv {
		t.Fatalf("expected FieldError from env, got %v", err)
	}
}

func TestLoadListFieldRejectsTable(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tawala.toml"), "[security.allowed_hosts]\nprimary = \"x\"\n")

	_, err := Load(Options{WorkDir: dir})
	if !errors.Is(err, ErrCoercion) || !strings.Contains(err.Error(), "security.allowed_hosts") {
		t.Fatalf("expected coercion error for security.allowed_hosts, got %v", err)
	}
}

func TestLoadUnknownOverride(t *testing.T) {
	clearEnv(t)
	_, err := Load(Options{WorkDir: t.TempDir(), Overrides: map[string]string{"database.engine": "x"}})
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestLoadOverrideNamedTwice(t *testing.T) {
	clearEnv(t)
	for i := 0; i < 20; i++ {
		_, err := Load(Options{WorkDir: t.TempDir(), Overrides: map[string]string{
			"database.backend": "sqlite",
			"DB_BACKEND":       "postgres",
		}})
		if !errors.Is(err, ErrDuplicateField) {
			t.Fatalf("expected ErrDuplicateField, got %v", err)
		}
		if want := `overrides "DB_BACKEND" and "database.backend" both set "database.backend"`; !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in error, got %q", want, err.Error())
		}
	}
}

func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "negative burst", env: map[string]string{"RATE_LIMIT_BURST": "-1"}},
		{name: "port out of range", env: map[string]string{"DB_PORT": "70000"}},
		{name: "unknown ssl mode", env: map[string]string{"DB_SSL_MODE": "sometimes"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load(Options{WorkDir: t.TempDir()})
			if err == nil || !strings.Contains(err.Error(), "validation failed") {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(DatabaseBackend, DatabaseBackend); !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	clash := Field{Key: "database.engine", Env: DatabaseBackend.Env}
	if _, err := NewRegistry(DatabaseBackend, clash); !errors.Is(err, ErrDuplicateField) {
		t.Fatalf("expected duplicate env error, got %v", err)
	}

	if _, err := NewRegistry(DefaultFields()...); err != nil {
		t.Fatalf("declared fields must be unique: %v", err)
	}
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	reg, err := NewRegistry(DefaultFields()...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	for _, name := range []string{"database.backend", "DB_BACKEND"} {
		f, ok := reg.Lookup(name)
		if !ok || f.Key != DatabaseBackend.Key {
			t.Fatalf("expected %s to resolve to database.backend, got %+v", name, f)
		}
	}
	if _, ok := reg.Lookup("nope"); ok {
		t.Fatalf("expected unknown name to miss")
	}
}

func TestValueDisplayMasksSecrets(t *testing.T) {
	t.Parallel()

	secret := Value{Field: SecuritySecretKey, Value: "hunter2"}
	if secret.Display() == "hunter2" {
		t.Fatalf("expected secret to be masked")
	}
	if (Value{Field: DatabasePassword, Value: ""}).Display() != "" {
		t.Fatalf("expected empty secret to stay empty")
	}
	if (Value{Field: DatabasePort, Value: 5432}).Display() != "5432" {
		t.Fatalf("expected plain value to render")
	}
}
