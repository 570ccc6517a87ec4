package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrUnsupportedBackend is matched by every backend-selector failure.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// UnsupportedBackendError names the selector that could not be dispatched.
type UnsupportedBackendError struct {
	Kind    string
	Backend string
	// Accepted lists the selectors that would have been dispatched.
	Accepted []string
}

func (e *UnsupportedBackendError) Error() string {
	msg := fmt.Sprintf("unsupported %s backend: %q", e.Kind, e.Backend)
	if len(e.Accepted) > 0 {
		msg += " (accepted: " + strings.Join(e.Accepted, ", ") + ")"
	}
	return msg
}

func (e *UnsupportedBackendError) Is(target error) bool {
	return target == ErrUnsupportedBackend
}

// acceptedSelectors flattens a backend table into a sorted selector list.
func acceptedSelectors(backends map[string][]string) []string {
	var out []string
	for _, aliases := range backends {
		out = append(out, aliases...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
