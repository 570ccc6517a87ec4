package postinit

import (
	"errors"
	"strings"
	"testing"

	"github.com/eugenenazirov/tawala/internal/settings"
)

func materialized(backend string) *settings.Materialized {
	return &settings.Materialized{
		PkgName:    "tawala",
		PkgVersion: "X.Y.Z",
		BaseDir:    "/srv/site",
		CLIDir:     "/srv/site/.tawala",
		StaticURL:  settings.StaticURL,
		Storages: map[string]settings.StorageBackend{
			settings.DefaultStorage: {Backend: backend},
		},
		Tailwind: settings.TailwindSettings{CLI: "/srv/site/.tawala/tailwindcss"},
		Commands: settings.CommandSettings{Build: []string{"make build"}},
	}
}

func TestNewCopiesSettings(t *testing.T) {
	a, err := New(materialized(settings.StorageFileSystem))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.PkgName != "tawala" || a.TailwindCLI != "/srv/site/.tawala/tailwindcss" {
		t.Fatalf("unexpected accessor: %+v", a)
	}
	if a.LoginRedirectURL != DefaultLoginRedirectURL {
		t.Fatalf("expected default login redirect, got %q", a.LoginRedirectURL)
	}
	if len(a.CommandsBuild) != 1 || a.CommandsBuild[0] != "make build" {
		t.Fatalf("unexpected build commands: %v", a.CommandsBuild)
	}
}

func TestNewKeepsConfiguredLoginRedirect(t *testing.T) {
	m := materialized(settings.StorageFileSystem)
	m.LoginRedirectURL = "/dashboard/"

	a, err := New(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.LoginRedirectURL != "/dashboard/" {
		t.Fatalf("expected configured redirect, got %q", a.LoginRedirectURL)
	}
}

func TestNewMissingSettings(t *testing.T) {
	m := materialized(settings.StorageFileSystem)
	m.PkgName = ""
	m.Tailwind.CLI = ""

	_, err := New(m)
	if !errors.Is(err, ErrMissingSetting) {
		t.Fatalf("expected ErrMissingSetting, got %v", err)
	}
	for _, name := range []string{"PkgName", "TailwindCLI"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("expected error to name %s, got %v", name, err)
		}
	}
}

func TestStorageTokenRequiredForBlob(t *testing.T) {
	m := materialized(settings.StorageVercelBlob)
	if _, err := New(m); !errors.Is(err, ErrMissingSetting) || !strings.Contains(err.Error(), "StorageToken") {
		t.Fatalf("expected missing StorageToken, got %v", err)
	}

	m.StorageToken = "vercel_blob_rw_token"
	if _, err := New(m); err != nil {
		t.Fatalf("unexpected error with token: %v", err)
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustNew(nil)
}
