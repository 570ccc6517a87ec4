package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cast"

	"github.com/eugenenazirov/tawala/internal/helpers"
)

// coerce converts a selected raw value to the declared kind of f. Relative
// paths are joined onto base.
func coerce(f Field, raw any, base string) (any, error) {
	switch f.Kind {
	case KindString:
		v, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w to string: %v", ErrCoercion, err)
		}
		return v, nil
	case KindBool:
		switch raw.(type) {
		case bool, string, int, int64, float64:
			return helpers.ToBool(raw), nil
		default:
			return nil, fmt.Errorf("%w to bool: unsupported type %T", ErrCoercion, raw)
		}
	case KindInt:
		v, err := cast.ToIntE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w to int: %v", ErrCoercion, err)
		}
		return v, nil
	case KindFloat:
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			return nil, fmt.Errorf("%w to float: %v", ErrCoercion, err)
		}
		return v, nil
	case KindDuration:
		v, err := cast.ToDurationE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w to duration: %v", ErrCoercion, err)
		}
		return v, nil
	case KindPath:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, fmt.Errorf("%w to path: %v", ErrCoercion, err)
		}
		return toPath(s, base), nil
	case KindList:
		v, ok := helpers.ToListOfStr(raw, nil)
		if !ok {
			return nil, fmt.Errorf("%w to list: unsupported type %T", ErrCoercion, raw)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrCoercion, f.Kind)
	}
}

func toPath(s, base string) string {
	if s == "" {
		return ""
	}
	if filepath.IsAbs(s) || base == "" {
		return filepath.Clean(s)
	}
	return filepath.Join(base, s)
}
