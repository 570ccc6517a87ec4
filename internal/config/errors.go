package config

import (
	"errors"
	"fmt"
)

var (
	// ErrCoercion is returned when a present value cannot be converted to the
	// declared kind of its field.
	ErrCoercion = errors.New("value cannot be coerced")
	// ErrDuplicateField is returned when two fields share a key or env name.
	ErrDuplicateField = errors.New("duplicate config field")
	// ErrUnknownField is returned when an override names no declared field.
	ErrUnknownField = errors.New("unknown config field")
)

// FieldError reports a resolution failure for a single field.
type FieldError struct {
	Field  string
	Source Source
	Value  any
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config field %q (from %s): %v", e.Field, e.Source, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
