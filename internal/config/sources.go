package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Source identifies where a resolved value came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceEnv      Source = "env"
	SourceDotenv   Source = "dotenv"
	SourceFile     Source = "file"
	SourceDefault  Source = "default"
)

// ProjectFileNames are searched, in order, in each directory from the working
// directory up to the filesystem root.
var ProjectFileNames = []string{"tawala.toml", "tawala.yaml", "tawala.yml"}

type layer struct {
	source        Source
	k             *koanf.Koanf
	emptyIsAbsent bool
}

func overrideLayer(reg *Registry, overrides map[string]string) (layer, error) {
	values := make(map[string]any, len(overrides))
	named := make(map[string]string, len(overrides))
	for name, value := range overrides {
		f, ok := reg.Lookup(name)
		if !ok {
			return layer{}, fmt.Errorf("%w: override %q", ErrUnknownField, name)
		}
		// A field named by both its key and its env name has no single value.
		if other, dup := named[f.Key]; dup {
			first, second := min(name, other), max(name, other)
			return layer{}, fmt.Errorf("%w: overrides %q and %q both set %q", ErrDuplicateField, first, second, f.Key)
		}
		named[f.Key] = name
		values[f.Key] = value
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return layer{}, fmt.Errorf("load overrides: %w", err)
	}
	return layer{source: SourceOverride, k: k}, nil
}

func envLayer(reg *Registry) (layer, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider("", ".", func(name string) string {
		return reg.keyForEnv(name)
	}), nil)
	if err != nil {
		return layer{}, fmt.Errorf("load environment: %w", err)
	}
	return layer{source: SourceEnv, k: k, emptyIsAbsent: true}, nil
}

func dotenvLayer(reg *Registry, path string) (layer, error) {
	entries, err := godotenv.Read(path)
	if err != nil {
		return layer{}, fmt.Errorf("read env file %s: %w", path, err)
	}

	values := make(map[string]any, len(entries))
	for name, value := range entries {
		if key := reg.keyForEnv(name); key != "" {
			values[key] = value
		}
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return layer{}, fmt.Errorf("load env file %s: %w", path, err)
	}
	return layer{source: SourceDotenv, k: k, emptyIsAbsent: true}, nil
}

func fileLayer(path string) (layer, error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	default:
		return layer{}, fmt.Errorf("unsupported project file format %q", filepath.Ext(path))
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return layer{}, fmt.Errorf("load project file %s: %w", path, err)
	}
	return layer{source: SourceFile, k: k}, nil
}

// FindProjectFile walks up from dir looking for one of ProjectFileNames.
func FindProjectFile(dir string) (string, bool) {
	for {
		for _, name := range ProjectFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return info.Mode().IsRegular(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
