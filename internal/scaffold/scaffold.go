// Package scaffold names the files the project generators write.
package scaffold

import "github.com/eugenenazirov/tawala/internal/config"

// Generator names.
const (
	DotenvExample = "dotenv_example"
	VercelJSON    = "vercel_json"
	APIEntrypoint = "api_entrypoint"
)

// Paths holds the output path of every generator. Paths are absolute once
// resolved through config.
type Paths struct {
	DotenvExample string
	VercelJSON    string
	APIEntrypoint string
}

// Entry pairs a generator with its output path.
type Entry struct {
	Name string
	Path string
}

// FromConfig takes the generator paths from the generate group.
func FromConfig(cfg config.GenerateConfig) Paths {
	return Paths{
		DotenvExample: cfg.DotenvExample,
		VercelJSON:    cfg.VercelJSON,
		APIEntrypoint: cfg.APIEntrypoint,
	}
}

// All returns every generator in a stable order.
func (p Paths) All() []Entry {
	return []Entry{
		{Name: DotenvExample, Path: p.DotenvExample},
		{Name: VercelJSON, Path: p.VercelJSON},
		{Name: APIEntrypoint, Path: p.APIEntrypoint},
	}
}
