package config

import (
	"fmt"
	"strings"
)

// Kind is the declared type of a field.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDuration
	KindPath
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDuration:
		return "duration"
	case KindPath:
		return "path"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field is a single named, typed, defaulted configuration value. Key is the
// dotted project-file path ("database.backend"), Env the environment variable.
type Field struct {
	Key     string
	Env     string
	Kind    Kind
	Default any
	Secret  bool
}

// Group returns the concern a field belongs to (the first key segment).
func (f Field) Group() string {
	group, _, _ := strings.Cut(f.Key, ".")
	return group
}

// Registry is an immutable, ordered set of declared fields.
type Registry struct {
	fields []Field
	byKey  map[string]Field
	byEnv  map[string]string
}

// NewRegistry indexes fields by key and env name. Keys and env names must be
// unique.
func NewRegistry(fields ...Field) (*Registry, error) {
	r := &Registry{
		fields: make([]Field, 0, len(fields)),
		byKey:  make(map[string]Field, len(fields)),
		byEnv:  make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		if f.Key == "" {
			return nil, fmt.Errorf("%w: empty key", ErrDuplicateField)
		}
		if _, ok := r.byKey[f.Key]; ok {
			return nil, fmt.Errorf("%w: key %q", ErrDuplicateField, f.Key)
		}
		if f.Env != "" {
			if other, ok := r.byEnv[f.Env]; ok {
				return nil, fmt.Errorf("%w: env %q used by %q and %q", ErrDuplicateField, f.Env, other, f.Key)
			}
			r.byEnv[f.Env] = f.Key
		}
		r.byKey[f.Key] = f
		r.fields = append(r.fields, f)
	}
	return r, nil
}

// Fields returns the declared fields in declaration order.
func (r *Registry) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Lookup finds a field by key or by env name.
func (r *Registry) Lookup(name string) (Field, bool) {
	if f, ok := r.byKey[name]; ok {
		return f, true
	}
	if key, ok := r.byEnv[name]; ok {
		return r.byKey[key], true
	}
	return Field{}, false
}

func (r *Registry) keyForEnv(env string) string {
	return r.byEnv[env]
}
