package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
)

// Value is the resolution record of one field.
type Value struct {
	Field  Field
	Source Source
	Raw    any
	Value  any
}

// Display renders the resolved value for humans, masking secrets.
func (v Value) Display() string {
	if v.Field.Secret {
		if s, _ := v.Value.(string); s == "" {
			return ""
		}
		return "********"
	}
	return fmt.Sprint(v.Value)
}

// Resolver resolves fields against an ordered list of source layers.
type Resolver struct {
	registry    *Registry
	layers      []layer
	anchor      string
	baseDir     string
	projectFile string
	envFile     string
}

// NewResolver prepares the source layers described by opts.
func NewResolver(reg *Registry, opts Options) (*Resolver, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		workDir = wd
	}

	r := &Resolver{registry: reg, anchor: workDir}

	projectFile := opts.ProjectFile
	if projectFile == "" {
		if found, ok := FindProjectFile(workDir); ok {
			projectFile = found
		}
	}
	if projectFile != "" {
		abs, err := filepath.Abs(projectFile)
		if err != nil {
			return nil, fmt.Errorf("resolve project file: %w", err)
		}
		r.projectFile = abs
		r.anchor = filepath.Dir(abs)
	}
	r.baseDir = r.anchor

	envFile := opts.EnvFile
	if envFile == "" {
		candidate := filepath.Join(r.anchor, ".env")
		exists, err := fileExists(candidate)
		if err != nil {
			return nil, fmt.Errorf("stat env file: %w", err)
		}
		if exists {
			envFile = candidate
		}
	}
	r.envFile = envFile

	overrides, err := overrideLayer(reg, opts.Overrides)
	if err != nil {
		return nil, err
	}
	environ, err := envLayer(reg)
	if err != nil {
		return nil, err
	}
	r.layers = []layer{overrides, environ}

	if r.envFile != "" {
		dotenv, err := dotenvLayer(reg, r.envFile)
		if err != nil {
			return nil, err
		}
		r.layers = append(r.layers, dotenv)
	}

	if r.projectFile != "" {
		project, err := fileLayer(r.projectFile)
		if err != nil {
			return nil, err
		}
		r.layers = append(r.layers, project)
	}

	return r, nil
}

// ProjectFile returns the project config file in use, or "".
func (r *Resolver) ProjectFile() string {
	return r.projectFile
}

// EnvFile returns the .env file in use, or "".
func (r *Resolver) EnvFile() string {
	return r.envFile
}

// SetBaseDir changes the directory relative path fields are joined onto.
func (r *Resolver) SetBaseDir(dir string) {
	r.baseDir = dir
}

// Resolve returns the value of f from the first source that has it, coerced to
// the declared kind.
func (r *Resolver) Resolve(f Field) (Value, error) {
	raw, source := r.lookup(f)
	v := Value{Field: f, Source: source, Raw: raw}

	base := r.baseDir
	if f.Key == ProjectBaseDir.Key {
		base = r.anchor
	}

	resolved, err := coerce(f, raw, base)
	if err != nil {
		return v, &FieldError{Field: f.Key, Source: source, Value: raw, Err: err}
	}
	v.Value = resolved
	return v, nil
}

func (r *Resolver) lookup(f Field) (any, Source) {
	for _, l := range r.layers {
		if !l.k.Exists(f.Key) {
			continue
		}
		raw := l.k.Get(f.Key)
		if s, ok := raw.(string); ok && s == "" && l.emptyIsAbsent {
			continue
		}
		return raw, l.source
	}
	return f.Default, SourceDefault
}

// binder resolves fields into typed values and collects every failure.
type binder struct {
	r      *Resolver
	values []Value
	err    error
}

func (b *binder) resolve(f Field) any {
	v, err := b.r.Resolve(f)
	b.values = append(b.values, v)
	if err != nil {
		b.err = multierr.Append(b.err, err)
		return nil
	}
	return v.Value
}

func (b *binder) String(f Field) string {
	s, _ := b.resolve(f).(string)
	return s
}

func (b *binder) Bool(f Field) bool {
	v, _ := b.resolve(f).(bool)
	return v
}

func (b *binder) Int(f Field) int {
	v, _ := b.resolve(f).(int)
	return v
}

func (b *binder) Float(f Field) float64 {
	v, _ := b.resolve(f).(float64)
	return v
}

func (b *binder) Duration(f Field) time.Duration {
	v, _ := b.resolve(f).(time.Duration)
	return v
}

func (b *binder) List(f Field) []string {
	v, _ := b.resolve(f).([]string)
	return v
}
