package main

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const masked = "********"

// maskSecrets replaces the secret values of a materialized settings map.
func maskSecrets(out map[string]any) {
	for _, key := range []string{"SECRET_KEY", "STORAGE_TOKEN"} {
		if s, ok := out[key].(string); ok && s != "" {
			out[key] = masked
		}
	}

	databases, _ := out["DATABASES"].(map[string]any)
	for _, db := range databases {
		entry, ok := db.(map[string]any)
		if !ok {
			continue
		}
		if s, ok := entry["PASSWORD"].(string); ok && s != "" {
			entry["PASSWORD"] = masked
		}
	}
}

func encodeSettings(out map[string]any, format string) ([]byte, error) {
	switch format {
	case "json", "":
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml":
		data, err := yaml.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return data, nil
	case "toml":
		data, err := toml.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
