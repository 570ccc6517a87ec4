// Package postinit exposes a read-only, statically typed view of the settings
// that application code needs after the server has been configured.
package postinit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/eugenenazirov/tawala/internal/settings"
)

// ErrMissingSetting is returned when a required setting is absent.
var ErrMissingSetting = errors.New("missing required setting")

// DefaultLoginRedirectURL is used when no login redirect is configured.
const DefaultLoginRedirectURL = "/"

// Accessor is built once from the materialized settings and never changes.
type Accessor struct {
	PkgName          string `validate:"required"`
	PkgDir           string
	PkgVersion       string `validate:"required"`
	BaseDir          string `validate:"required"`
	CLIDir           string `validate:"required"`
	TailwindCLI      string `validate:"required"`
	StorageBackend   string `validate:"required"`
	StorageToken     string `validate:"required_if=StorageBackend vercel_blob"`
	CommandsBuild    []string
	CommandsInstall  []string
	LoginRedirectURL string

	SiteName       string
	StaticURL      string `validate:"required"`
	TailwindSource string
	TailwindOutput string
}

// New copies the selected settings out of m and validates them.
func New(m *settings.Materialized) (*Accessor, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: no settings", ErrMissingSetting)
	}

	a := &Accessor{
		PkgName:          m.PkgName,
		PkgDir:           m.PkgDir,
		PkgVersion:       m.PkgVersion,
		BaseDir:          m.BaseDir,
		CLIDir:           m.CLIDir,
		TailwindCLI:      m.Tailwind.CLI,
		StorageBackend:   m.DefaultStorage().Backend,
		StorageToken:     m.StorageToken,
		CommandsBuild:    append([]string(nil), m.Commands.Build...),
		CommandsInstall:  append([]string(nil), m.Commands.Install...),
		LoginRedirectURL: m.LoginRedirectURL,

		SiteName:       m.SiteName,
		StaticURL:      m.StaticURL,
		TailwindSource: m.Tailwind.Source,
		TailwindOutput: m.Tailwind.Output,
	}
	if a.LoginRedirectURL == "" {
		a.LoginRedirectURL = DefaultLoginRedirectURL
	}

	if err := validate(a); err != nil {
		return nil, err
	}
	return a, nil
}

// MustNew is like New but panics on error.
func MustNew(m *settings.Materialized) *Accessor {
	a, err := New(m)
	if err != nil {
		panic(err)
	}
	return a
}

func validate(a *Accessor) error {
	err := validator.New().Struct(a)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate settings: %w", err)
	}

	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		names = append(names, fe.Field())
	}
	return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(names, ", "))
}
