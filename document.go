package recz

import (
	"encoding/json"
	"fmt"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Document bridging: schemas fill and export plain mappings, and these
// helpers move those mappings to and from the common config wire formats.
// Loaders return map[string]any suitable for Schema.Fill; dumpers accept the
// mappings Schema.Export produces.

// LoadJSON decodes a JSON object into a mapping. Numbers decode as float64,
// so pair numeric fields with coercers such as Whole or Convert.
func LoadJSON(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode json document: %w", err)
	}
	return m, nil
}

// DumpJSON encodes a mapping as indented JSON.
func DumpJSON(m map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json document: %w", err)
	}
	return data, nil
}

// LoadYAML decodes a YAML mapping document.
func LoadYAML(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode yaml document: %w", err)
	}
	return m, nil
}

// DumpYAML encodes a mapping as YAML.
func DumpYAML(m map[string]any) ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode yaml document: %w", err)
	}
	return data, nil
}

// LoadTOML decodes a TOML document. Integers decode as int64.
func LoadTOML(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode toml document: %w", err)
	}
	return m, nil
}

// DumpTOML encodes a mapping as TOML.
func DumpTOML(m map[string]any) ([]byte, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode toml document: %w", err)
	}
	return data, nil
}
