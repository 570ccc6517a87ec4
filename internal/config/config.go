package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Options selects the sources Load reads from.
type Options struct {
	// ProjectFile is the project config file. When empty, ProjectFileNames are
	// searched from WorkDir upwards.
	ProjectFile string
	// EnvFile is a dotenv file. When empty, .env next to the project file (or
	// in WorkDir) is used if it exists.
	EnvFile string
	// Overrides are explicit values keyed by field key or env name. They take
	// precedence over every other source.
	Overrides map[string]string
	// WorkDir defaults to the process working directory.
	WorkDir string
}

// Settings is the aggregate of every configuration group. It is built once at
// startup and treated as read-only afterwards.
type Settings struct {
	Package  PackageConfig
	Project  ProjectConfig
	Security SecurityConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Tailwind TailwindConfig
	Commands CommandsConfig
	Server   ServerConfig
	Generate GenerateConfig

	projectFile string
	envFile     string
	values      []Value
}

// ProjectFile returns the project config file that was read, or "".
func (s *Settings) ProjectFile() string {
	return s.projectFile
}

// EnvFile returns the .env file that was read, or "".
func (s *Settings) EnvFile() string {
	return s.envFile
}

// Values returns the resolution record of every field in binding order.
func (s *Settings) Values() []Value {
	out := make([]Value, len(s.values))
	copy(out, s.values)
	return out
}

// Load resolves every declared field with precedence:
// overrides > environment (.env after process env) > project file > defaults.
// All coercion failures are reported together, each naming its field.
func Load(opts Options) (*Settings, error) {
	reg, err := NewRegistry(DefaultFields()...)
	if err != nil {
		return nil, err
	}

	r, err := NewResolver(reg, opts)
	if err != nil {
		return nil, err
	}

	if base, err := r.Resolve(ProjectBaseDir); err == nil {
		if dir, _ := base.Value.(string); dir != "" {
			r.SetBaseDir(dir)
		}
	}

	b := &binder{r: r}
	project := bindProject(b)
	s := &Settings{
		Package:  bindPackage(b),
		Project:  project,
		Security: bindSecurity(b),
		Database: bindDatabase(b),
		Storage:  bindStorage(b),
		Tailwind: bindTailwind(b, project.CLIDir),
		Commands: bindCommands(b),
		Server:   bindServer(b),
		Generate: bindGenerate(b),

		projectFile: r.ProjectFile(),
		envFile:     r.EnvFile(),
		values:      b.values,
	}
	if b.err != nil {
		return nil, fmt.Errorf("resolve configuration: %w", b.err)
	}

	if err := validateSettings(s); err != nil {
		return nil, err
	}

	return s, nil
}

func validateSettings(s *Settings) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
