package helpers

import (
	"fmt"
	"strings"
)

// ExitCode is the process exit status returned by the CLI.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	ExitError   ExitCode = 1
)

// VersionPlaceholder is reported when no build version is available.
func VersionPlaceholder() string {
	return "X.Y.Z"
}

var truthy = map[string]struct{}{
	"true": {},
	"1":    {},
	"yes":  {},
	"on":   {},
}

// ToBool returns bools unchanged and treats "true", "1", "yes" and "on"
// (case-insensitive) as true. Every other value is false.
func ToBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		_, ok := truthy[strings.ToLower(strings.TrimSpace(v))]
		return ok
	case nil:
		return false
	default:
		_, ok := truthy[strings.ToLower(fmt.Sprint(v))]
		return ok
	}
}

// ToListOfStr converts a list or a comma-separated string to a list of strings.
// String items are trimmed and empty items dropped. The optional transform is
// applied to every item. Any other input type yields ok=false.
func ToListOfStr(value any, transform func(string) string) (out []string, ok bool) {
	switch v := value.(type) {
	case []string:
		out = make([]string, len(v))
		copy(out, v)
	case []any:
		out = make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
	case string:
		out = []string{}
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	default:
		return nil, false
	}

	if transform != nil {
		for i := range out {
			out[i] = transform(out[i])
		}
	}
	return out, true
}

// Choice is a (value, label) pair.
type Choice[V any] struct {
	Value string
	Label V
}

// MaxLengthFromChoices returns the length of the longest choice value, or 0
// for no choices.
func MaxLengthFromChoices[V any](choices []Choice[V]) int {
	longest := 0
	for _, choice := range choices {
		if n := len(choice.Value); n > longest {
			longest = n
		}
	}
	return longest
}
